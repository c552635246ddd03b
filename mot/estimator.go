package mot

import (
	"gonum.org/v1/gonum/mat"
)

// StateEstimator is a constant-velocity Kalman filter over object's center.
// State vector: [x, y, vx, vy]. Measurement: [x, y]. Time step is one frame.
type StateEstimator struct {
	x    *mat.VecDense
	p    *mat.SymDense
	f    *mat.Dense
	h    *mat.Dense
	q    *mat.SymDense
	r    *mat.SymDense
	gain *mat.Dense
}

// NewStateEstimator creates filter at the given position with zero velocity.
// Initial covariance is diag(posVar, posVar, velVar, velVar).
func NewStateEstimator(position Point, cfg EstimatorConfig) *StateEstimator {
	// F = [1 0 1 0]
	//     [0 1 0 1]
	//     [0 0 1 0]
	//     [0 0 0 1]
	f := mat.NewDense(4, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	// H selects position components
	h := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
	q := mat.NewSymDense(4, nil)
	for i := 0; i < 4; i++ {
		q.SetSym(i, i, cfg.ProcessNoise)
	}
	r := mat.NewSymDense(2, nil)
	r.SetSym(0, 0, cfg.MeasurementNoise)
	r.SetSym(1, 1, cfg.MeasurementNoise)

	p := mat.NewSymDense(4, nil)
	p.SetSym(0, 0, cfg.InitialPositionVariance)
	p.SetSym(1, 1, cfg.InitialPositionVariance)
	p.SetSym(2, 2, cfg.InitialVelocityVariance)
	p.SetSym(3, 3, cfg.InitialVelocityVariance)

	return &StateEstimator{
		x:    mat.NewVecDense(4, []float64{position.X, position.Y, 0, 0}),
		p:    p,
		f:    f,
		h:    h,
		q:    q,
		r:    r,
		gain: mat.NewDense(4, 2, nil),
	}
}

// Predict advances state by one frame: x' = F*x, P' = F*P*F^T + Q.
// Returns predicted position
func (est *StateEstimator) Predict() Point {
	var xPred mat.VecDense
	xPred.MulVec(est.f, est.x)
	est.x = &xPred

	var fp, fpf mat.Dense
	fp.Mul(est.f, est.p)
	fpf.Mul(&fp, est.f.T())
	pPred := symmetrize(&fpf)
	pPred.AddSym(pPred, est.q)
	est.p = pPred

	return est.Position()
}

// Correct blends measured position into the state.
//
// K = P*H^T*S^-1 with S = H*P*H^T + R. Covariance is updated as
// (I-K*H)*P*(I-K*H)^T + K*R*K^T, which equals P - K*H*P for the optimal gain and stays PSD under rounding.
// On failure the state is left untouched and *NumericalError is returned.
func (est *StateEstimator) Correct(measurement Point) error {
	if !isFinite(measurement.X, measurement.Y) {
		return &NumericalError{Op: "correct", Reason: "measurement is not finite"}
	}
	z := mat.NewVecDense(2, []float64{measurement.X, measurement.Y})

	var hx, innovation mat.VecDense
	hx.MulVec(est.h, est.x)
	innovation.SubVec(z, &hx)

	var hp, hph mat.Dense
	hp.Mul(est.h, est.p)
	hph.Mul(&hp, est.h.T())
	s := symmetrize(&hph)
	s.AddSym(s, est.r)
	if !matrixFinite(s) {
		return &NumericalError{Op: "correct", Reason: "innovation covariance contains NaN/Inf"}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return &NumericalError{Op: "correct", Reason: "innovation covariance is not positive definite"}
	}

	// S and P are symmetric, so K^T = S^-1 * (H*P)
	var kt mat.Dense
	if err := chol.SolveTo(&kt, &hp); err != nil {
		return &NumericalError{Op: "correct", Reason: "can't solve for Kalman gain: " + err.Error()}
	}
	k := mat.DenseCopyOf(kt.T())

	var dx, xNew mat.VecDense
	dx.MulVec(k, &innovation)
	xNew.AddVec(est.x, &dx)

	var kh, ikh mat.Dense
	kh.Mul(k, est.h)
	ikh.Sub(identity4(), &kh)
	var left, joseph mat.Dense
	left.Mul(&ikh, est.p)
	joseph.Mul(&left, ikh.T())
	var kr, krk mat.Dense
	kr.Mul(k, est.r)
	krk.Mul(&kr, k.T())
	var pSum mat.Dense
	pSum.Add(&joseph, &krk)
	pNew := symmetrize(&pSum)

	if !matrixFinite(&xNew) || !matrixFinite(pNew) {
		return &NumericalError{Op: "correct", Reason: "corrected state contains NaN/Inf"}
	}

	est.x = &xNew
	est.p = pNew
	est.gain = k
	return nil
}

// Position returns current (x, y)
func (est *StateEstimator) Position() Point {
	return Point{X: est.x.AtVec(0), Y: est.x.AtVec(1)}
}

// Velocity returns current (vx, vy) in pixels per frame
func (est *StateEstimator) Velocity() (float64, float64) {
	return est.x.AtVec(2), est.x.AtVec(3)
}

// Covariance returns copy of 4x4 covariance
func (est *StateEstimator) Covariance() *mat.SymDense {
	return mat.NewSymDense(4, append([]float64(nil), est.p.RawSymmetric().Data...))
}

// Gain returns copy of the 4x2 Kalman gain used by the last successful Correct. Zero before any correction
func (est *StateEstimator) Gain() *mat.Dense {
	return mat.DenseCopyOf(est.gain)
}

func identity4() *mat.DiagDense {
	return mat.NewDiagDense(4, []float64{1, 1, 1, 1})
}

// symmetrize returns (M + M^T)/2 for square M
func symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2.0)
		}
	}
	return sym
}

func matrixFinite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !isFinite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}
