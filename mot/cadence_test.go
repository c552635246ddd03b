package mot

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cadenceConfig(minInterval, maxInterval, initial, window int) CadenceConfig {
	cfg := DefaultCadenceConfig()
	cfg.MinInterval = minInterval
	cfg.MaxInterval = maxInterval
	cfg.InitialInterval = initial
	cfg.Window = window
	return cfg
}

func TestCadenceController_ShouldDetect(t *testing.T) {
	controller, err := NewCadenceController(cadenceConfig(3, 3, 0, 10))
	require.NoError(t, err)
	require.Equal(t, 3, controller.Interval())

	detected := []int{}
	for i := 0; i < 10; i++ {
		if controller.ShouldDetect(i) {
			detected = append(detected, i)
		}
	}
	assert.Equal(t, []int{0, 3, 6, 9}, detected)
}

func TestCadenceController_Direction(t *testing.T) {
	controller, err := NewCadenceController(cadenceConfig(1, 10, 5, 1))
	require.NoError(t, err)

	// switch penalty 2 beats growth step 1
	assert.True(t, controller.Observe(FrameMetrics{Switches: 1}))
	assert.Equal(t, 4, controller.Interval())

	// empty window carries no confidence penalty
	controller.Observe(FrameMetrics{})
	assert.Equal(t, 5, controller.Interval())

	// 5 * (0.5 - 0.1) = 2
	controller.Observe(FrameMetrics{Confidences: []float64{0.1}})
	assert.Equal(t, 4, controller.Interval())

	controller.Observe(FrameMetrics{Confidences: []float64{0.9, 0.8}})
	assert.Equal(t, 5, controller.Interval())

	// lost penalty 3
	controller.Observe(FrameMetrics{Lost: 1})
	assert.Equal(t, 3, controller.Interval())
}

func TestCadenceController_Bounds(t *testing.T) {
	controller, err := NewCadenceController(cadenceConfig(2, 6, 4, 1))
	require.NoError(t, err)

	extremes := []FrameMetrics{
		{Switches: math.MaxInt32, Lost: math.MaxInt32, Confidences: []float64{0}},
		{},
		{Confidences: []float64{1, 1, 1}},
		{Lost: 1000},
	}
	for round := 0; round < 20; round++ {
		for _, metrics := range extremes {
			controller.Observe(metrics)
			require.GreaterOrEqual(t, controller.Interval(), 2)
			require.LessOrEqual(t, controller.Interval(), 6)
		}
	}

	for i := 0; i < 20; i++ {
		controller.Observe(FrameMetrics{Switches: math.MaxInt32})
	}
	assert.Equal(t, 2, controller.Interval())

	for i := 0; i < 20; i++ {
		controller.Observe(FrameMetrics{Confidences: []float64{0.99}})
	}
	assert.Equal(t, 6, controller.Interval())
}

func TestCadenceController_WindowReset(t *testing.T) {
	controller, err := NewCadenceController(cadenceConfig(1, 10, 1, 3))
	require.NoError(t, err)

	assert.False(t, controller.Observe(FrameMetrics{Switches: 1, Confidences: []float64{0.9}}))
	assert.False(t, controller.Observe(FrameMetrics{Lost: 2}))

	state := controller.State()
	assert.Equal(t, 1, state.Switches)
	assert.Equal(t, 2, state.Lost)
	assert.Equal(t, 1, state.ConfidenceCount)
	assert.Equal(t, 2, state.WindowFrames)
	mean, ok := state.MeanConfidence()
	assert.True(t, ok)
	assert.InDelta(t, 0.9, mean, eps)

	// penalty 2 + 6 = 8, growth 1: clamped to minimum
	assert.True(t, controller.Observe(FrameMetrics{}))
	assert.Equal(t, 1, controller.Interval())

	state = controller.State()
	assert.Equal(t, CadenceState{Interval: 1, TotalFrames: 3}, state)
	_, ok = state.MeanConfidence()
	assert.False(t, ok)
}

func TestCadenceController_Recalculate(t *testing.T) {
	controller, err := NewCadenceController(cadenceConfig(1, 10, 1, 100))
	require.NoError(t, err)
	assert.Equal(t, 2, controller.Recalculate())
	assert.Equal(t, 3, controller.Recalculate())
	assert.Equal(t, 0.0, controller.Penalty())
}

func TestCadenceController_InvalidConfig(t *testing.T) {
	cases := map[string]CadenceConfig{
		"min greater than max": cadenceConfig(5, 2, 0, 10),
		"zero min":             cadenceConfig(0, 2, 0, 10),
		"initial outside":      cadenceConfig(1, 5, 7, 10),
		"zero window":          cadenceConfig(1, 5, 1, 0),
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			controller, err := NewCadenceController(cfg)
			assert.Nil(t, controller)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
			assert.Panics(t, func() {
				MustNewCadenceController(cfg)
			})
		})
	}
}
