package mot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineDistance(t *testing.T) {
	a := normalizeFeature([]float64{1, 0})
	assert.InDelta(t, 0.0, cosineDistance(a, normalizeFeature([]float64{5, 0})), eps)
	assert.InDelta(t, 1.0, cosineDistance(a, normalizeFeature([]float64{-1, 0})), eps)
	assert.InDelta(t, 0.5, cosineDistance(a, normalizeFeature([]float64{0, 2})), eps)
	assert.Equal(t, 1.0, cosineDistance(a, []float64{1, 0, 0}))
	assert.Equal(t, 1.0, cosineDistance(nil, a))
}

func TestSmoothFeature(t *testing.T) {
	previous := normalizeFeature([]float64{1, 0})
	observed := normalizeFeature([]float64{0, 1})

	smoothed := smoothFeature(previous, observed, 0.5)
	assert.InDeltaSlice(t, []float64{0.70710678, 0.70710678}, smoothed, eps)

	assert.Equal(t, previous, smoothFeature(previous, nil, 0.5))
	assert.Equal(t, observed, smoothFeature(nil, observed, 0.9))
}
