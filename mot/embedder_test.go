package mot

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramEmbedder(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 50))
	draw.Draw(frame, image.Rect(0, 0, 50, 50), &image.Uniform{C: color.RGBA{R: 255, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(frame, image.Rect(50, 0, 100, 50), &image.Uniform{C: color.RGBA{B: 255, A: 255}}, image.Point{}, draw.Src)

	embedder := NewHistogramEmbedder(8, 4)
	red, err := embedder.Embed(context.Background(), frame, NewRect(10, 10, 20, 20))
	require.NoError(t, err)
	require.Len(t, red, 12)
	// 64 pixels: red channel in the top bucket, green and blue in the bottom one
	assert.Equal(t, 64.0, red[3])
	assert.Equal(t, 64.0, red[4])
	assert.Equal(t, 64.0, red[8])

	blue, err := embedder.Embed(context.Background(), frame, NewRect(60, 10, 20, 20))
	require.NoError(t, err)
	redAgain, err := embedder.Embed(context.Background(), frame, NewRect(15, 20, 25, 25))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, cosineDistance(normalizeFeature(red), normalizeFeature(redAgain)), eps)
	assert.Greater(t, cosineDistance(normalizeFeature(red), normalizeFeature(blue)), 0.1)
}

func TestHistogramEmbedder_Errors(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	embedder := NewHistogramEmbedder(0, 0)
	assert.Equal(t, 32, embedder.Size)
	assert.Equal(t, 8, embedder.Bins)

	_, err := embedder.Embed(context.Background(), frame, NewRect(50, 50, 5, 5))
	assert.Error(t, err)
	_, err = embedder.Embed(context.Background(), nil, NewRect(0, 0, 5, 5))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = embedder.Embed(ctx, frame, NewRect(0, 0, 5, 5))
	assert.ErrorIs(t, err, context.Canceled)
}
