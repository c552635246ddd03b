package mot

import "gonum.org/v1/gonum/floats"

// normalizeFeature returns L2-normalized copy. Zero vector (or nil) gives nil: such feature can't be compared
func normalizeFeature(feature []float64) []float64 {
	if len(feature) == 0 {
		return nil
	}
	norm := floats.Norm(feature, 2)
	if norm == 0 || !isFinite(norm) {
		return nil
	}
	normalized := make([]float64, len(feature))
	floats.ScaleTo(normalized, 1.0/norm, feature)
	return normalized
}

// cosineDistance for L2-normalized vectors, in [0, 1].
// Returns 1 (max distance) for missing or mismatched vectors.
func cosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1.0
	}
	similarity := floats.Dot(a, b)
	dist := (1.0 - similarity) / 2.0
	if dist < 0 {
		return 0
	}
	if dist > 1 {
		return 1
	}
	return dist
}

// smoothFeature blends new observation into the running feature:
// smoothed = alpha*previous + (1-alpha)*observed, then re-normalized
func smoothFeature(previous, observed []float64, alpha float64) []float64 {
	if len(observed) == 0 {
		return previous
	}
	if len(previous) != len(observed) {
		smoothed := make([]float64, len(observed))
		copy(smoothed, observed)
		return smoothed
	}
	smoothed := make([]float64, len(observed))
	floats.ScaleTo(smoothed, alpha, previous)
	floats.AddScaled(smoothed, 1-alpha, observed)
	if normalized := normalizeFeature(smoothed); normalized != nil {
		return normalized
	}
	return previous
}
