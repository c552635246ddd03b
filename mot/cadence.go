package mot

import "math"

// FrameMetrics is the per-frame quality signal reported to CadenceController
type FrameMetrics struct {
	// Switches is the number of identities present in one detection cycle and absent in the next (or vice versa)
	Switches int
	// Lost is the number of tracks evicted on the frame
	Lost int
	// Confidences of detections accepted on the frame
	Confidences []float64
}

// CadenceState is the fixed-shape accumulator of CadenceController.
// Window fields are zeroed by Reset on every recalculation.
type CadenceState struct {
	Interval int
	// Window accumulators
	Switches        int
	Lost            int
	ConfidenceSum   float64
	ConfidenceCount int
	WindowFrames    int
	// TotalFrames is never reset
	TotalFrames int
}

// MeanConfidence returns running mean of accepted confidences in the window and false when there were none
func (state *CadenceState) MeanConfidence() (float64, bool) {
	if state.ConfidenceCount == 0 {
		return 0, false
	}
	return state.ConfidenceSum / float64(state.ConfidenceCount), true
}

// Reset zeroes window accumulators. Interval and TotalFrames survive
func (state *CadenceState) Reset() {
	state.Switches = 0
	state.Lost = 0
	state.ConfidenceSum = 0
	state.ConfidenceCount = 0
	state.WindowFrames = 0
}

// CadenceController decides which frames run the detector and adapts the interval to tracking quality.
// One controller per stream.
type CadenceController struct {
	cfg   CadenceConfig
	state CadenceState
}

// NewCadenceController validates configuration. Invalid bounds are fatal here, never at runtime
func NewCadenceController(cfg CadenceConfig) (*CadenceController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	interval := cfg.InitialInterval
	if interval == 0 {
		interval = cfg.MinInterval
	}
	return &CadenceController{
		cfg:   cfg,
		state: CadenceState{Interval: interval},
	}, nil
}

// MustNewCadenceController is like NewCadenceController but panics on invalid configuration
func MustNewCadenceController(cfg CadenceConfig) *CadenceController {
	controller, err := NewCadenceController(cfg)
	if err != nil {
		panic(err)
	}
	return controller
}

// ShouldDetect returns true iff frameIndex mod interval == 0
func (controller *CadenceController) ShouldDetect(frameIndex int) bool {
	return frameIndex%controller.state.Interval == 0
}

// Interval returns current detection interval
func (controller *CadenceController) Interval() int {
	return controller.state.Interval
}

// State returns copy of the accumulator
func (controller *CadenceController) State() CadenceState {
	return controller.state
}

// Observe accumulates metrics of one frame. Every Window frames interval is recalculated;
// the returned flag reports whether it happened on this call
func (controller *CadenceController) Observe(metrics FrameMetrics) bool {
	controller.state.Switches += metrics.Switches
	controller.state.Lost += metrics.Lost
	for _, confidence := range metrics.Confidences {
		controller.state.ConfidenceSum += confidence
		controller.state.ConfidenceCount++
	}
	controller.state.WindowFrames++
	controller.state.TotalFrames++
	if controller.state.WindowFrames >= controller.cfg.Window {
		controller.Recalculate()
		return true
	}
	return false
}

// Penalty returns quality penalty of the current window:
// SwitchWeight*switches + LostWeight*lost + ConfidenceWeight*max(0, ConfidenceFloor-meanConfidence).
// Confidence term is zero when no detection was accepted in the window
func (controller *CadenceController) Penalty() float64 {
	penalty := controller.cfg.SwitchWeight*float64(controller.state.Switches) +
		controller.cfg.LostWeight*float64(controller.state.Lost)
	if mean, ok := controller.state.MeanConfidence(); ok {
		penalty += controller.cfg.ConfidenceWeight * math.Max(0, controller.cfg.ConfidenceFloor-mean)
	}
	return penalty
}

// Recalculate moves interval by round(GrowthStep - penalty), clamps it to [MinInterval, MaxInterval]
// and resets window accumulators. Returns new interval
func (controller *CadenceController) Recalculate() int {
	adjustment := controller.cfg.GrowthStep - controller.Penalty()
	// Clamp before converting: huge penalties must not overflow int
	adjustment = math.Max(adjustment, -float64(controller.cfg.MaxInterval))
	adjustment = math.Min(adjustment, float64(controller.cfg.MaxInterval))
	next := controller.state.Interval + int(math.Round(adjustment))
	controller.state.Interval = clampInt(next, controller.cfg.MinInterval, controller.cfg.MaxInterval)
	controller.state.Reset()
	return controller.state.Interval
}
