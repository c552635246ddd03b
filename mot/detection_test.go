package mot

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetection(t *testing.T) {
	det, err := NewDetection(10, 20, 30, 60, 0.75, 2, "car")
	require.NoError(t, err)
	assert.Equal(t, NewRect(10, 20, 20, 40), det.BBox())
	assert.Equal(t, NewPoint(20, 40), det.Center())
	assert.Equal(t, 0.75, det.Confidence())
	assert.Equal(t, 2, det.ClassID())
	assert.Equal(t, "car", det.Label())
	assert.Nil(t, det.Embedding())
}

func TestNewDetection_Validation(t *testing.T) {
	cases := []struct {
		name                 string
		x1, y1, x2, y2, conf float64
		field                string
	}{
		{name: "inverted x", x1: 30, y1: 20, x2: 10, y2: 60, conf: 0.5, field: "x2"},
		{name: "inverted y", x1: 10, y1: 60, x2: 30, y2: 20, conf: 0.5, field: "y2"},
		{name: "nan corner", x1: math.NaN(), y1: 20, x2: 30, y2: 60, conf: 0.5, field: "box"},
		{name: "infinite corner", x1: 10, y1: 20, x2: math.Inf(1), y2: 60, conf: 0.5, field: "box"},
		{name: "confidence above one", x1: 10, y1: 20, x2: 30, y2: 60, conf: 1.5, field: "confidence"},
		{name: "negative confidence", x1: 10, y1: 20, x2: 30, y2: 60, conf: -0.1, field: "confidence"},
		{name: "nan confidence", x1: 10, y1: 20, x2: 30, y2: 60, conf: math.NaN(), field: "confidence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDetection(tc.x1, tc.y1, tc.x2, tc.y2, tc.conf, 0, "car")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestNewDetection_ZeroSizeIsValid(t *testing.T) {
	det, err := NewDetection(10, 10, 10, 10, 0, 0, "point")
	require.NoError(t, err)
	assert.Equal(t, 0.0, det.BBox().Area())
}

func TestNewDetectionFromRaw_Labels(t *testing.T) {
	labels := []string{"person", "car"}
	det, err := NewDetectionFromRaw(rawAt(50, 50, 10, 0.9, 1), labels)
	require.NoError(t, err)
	assert.Equal(t, "car", det.Label())

	det, err = NewDetectionFromRaw(rawAt(50, 50, 10, 0.9, 7), labels)
	require.NoError(t, err)
	assert.Equal(t, "class_7", det.Label())

	det, err = NewDetectionFromRaw(rawAt(50, 50, 10, 0.9, -1), nil)
	require.NoError(t, err)
	assert.Equal(t, "class_-1", det.Label())
}

func TestDetection_WithEmbedding(t *testing.T) {
	det := mustDetection(t, 50, 50, 10, 10, 0.9, "car")
	embedded := det.WithEmbedding([]float64{3, 4})
	assert.Nil(t, det.Embedding())
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, embedded.Embedding(), eps)
	assert.Nil(t, det.WithEmbedding([]float64{0, 0}).Embedding())
}
