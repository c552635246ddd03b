package mot

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// HistogramEmbedder is a lightweight appearance model: the region is rescaled to Size x Size
// and described by per-channel color histograms with Bins buckets each (3*Bins values).
// Good enough to tell a red car from a white one; use a neural embedder for re-identification.
type HistogramEmbedder struct {
	Size int
	Bins int
}

// Compile-time assertion that HistogramEmbedder implements Embedder.
var _ Embedder = (*HistogramEmbedder)(nil)

// NewHistogramEmbedder creates embedder. Non-positive values fall back to 32x32 patch and 8 bins
func NewHistogramEmbedder(size, bins int) *HistogramEmbedder {
	if size <= 0 {
		size = 32
	}
	if bins <= 0 {
		bins = 8
	}
	return &HistogramEmbedder{Size: size, Bins: bins}
}

// Embed implements Embedder. Region is clipped to frame bounds; empty intersection is an error
func (he *HistogramEmbedder) Embed(ctx context.Context, frame image.Image, region Rectangle) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	src := region.ImageRect().Intersect(frame.Bounds())
	if src.Empty() {
		return nil, errors.Errorf("region %v is outside of frame %v", region.ImageRect(), frame.Bounds())
	}

	patch := image.NewRGBA(image.Rect(0, 0, he.Size, he.Size))
	draw.ApproxBiLinear.Scale(patch, patch.Bounds(), frame, src, draw.Src, nil)

	histogram := make([]float64, 3*he.Bins)
	pix := patch.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		histogram[int(pix[i])*he.Bins/256]++
		histogram[he.Bins+int(pix[i+1])*he.Bins/256]++
		histogram[2*he.Bins+int(pix[i+2])*he.Bins/256]++
	}
	return histogram, nil
}
