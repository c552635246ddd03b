package mot

import (
	"context"
	"fmt"
	"image"
	"math"
)

// Detector is the external object detector. Implementations must not modify frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]RawDetection, error)
}

// DetectorFunc adapts plain function to Detector
type DetectorFunc func(ctx context.Context, frame image.Image) ([]RawDetection, error)

// Detect calls f(ctx, frame)
func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) ([]RawDetection, error) {
	return f(ctx, frame)
}

// Embedder is the optional appearance model: image region -> fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, frame image.Image, region Rectangle) ([]float64, error)
}

// EmbedderFunc adapts plain function to Embedder
type EmbedderFunc func(ctx context.Context, frame image.Image, region Rectangle) ([]float64, error)

// Embed calls f(ctx, frame, region)
func (f EmbedderFunc) Embed(ctx context.Context, frame image.Image, region Rectangle) ([]float64, error) {
	return f(ctx, frame, region)
}

// RawDetection is what detector returns: corners, confidence and class identifier.
// It is not trusted until converted by NewDetection.
type RawDetection struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	ClassID        int
}

// Detection is a validated detector output. Immutable after creation.
type Detection struct {
	box        Rectangle
	confidence float64
	classID    int
	label      string
	embedding  []float64
}

// NewDetection validates corners and confidence.
// Returns *ValidationError for x2<x1, y2<y1, non-finite values or confidence outside [0, 1]
func NewDetection(x1, y1, x2, y2, confidence float64, classID int, label string) (Detection, error) {
	if !isFinite(x1, y1, x2, y2) {
		return Detection{}, &ValidationError{Field: "box", Value: [4]float64{x1, y1, x2, y2}, Reason: "coordinates must be finite"}
	}
	if x2 < x1 {
		return Detection{}, &ValidationError{Field: "x2", Value: x2, Reason: fmt.Sprintf("must not be less than x1=%v", x1)}
	}
	if y2 < y1 {
		return Detection{}, &ValidationError{Field: "y2", Value: y2, Reason: fmt.Sprintf("must not be less than y1=%v", y1)}
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Detection{}, &ValidationError{Field: "confidence", Value: confidence, Reason: "must be in [0, 1]"}
	}
	return Detection{
		box:        NewRectFromCorners(x1, y1, x2, y2),
		confidence: confidence,
		classID:    classID,
		label:      label,
	}, nil
}

// NewDetectionFromRaw converts detector output using labels table for class names.
// Unknown class IDs get "class_<id>" label.
func NewDetectionFromRaw(raw RawDetection, labels []string) (Detection, error) {
	label := fmt.Sprintf("class_%d", raw.ClassID)
	if raw.ClassID >= 0 && raw.ClassID < len(labels) {
		label = labels[raw.ClassID]
	}
	return NewDetection(raw.X1, raw.Y1, raw.X2, raw.Y2, raw.Confidence, raw.ClassID, label)
}

// WithEmbedding returns copy of detection carrying appearance vector
func (det Detection) WithEmbedding(embedding []float64) Detection {
	det.embedding = normalizeFeature(embedding)
	return det
}

// BBox returns detection's bounding box
func (det Detection) BBox() Rectangle {
	return det.box
}

// Center returns center of detection's bounding box
func (det Detection) Center() Point {
	return det.box.Center()
}

// Confidence returns detector confidence
func (det Detection) Confidence() float64 {
	return det.confidence
}

// ClassID returns detector class identifier
func (det Detection) ClassID() int {
	return det.classID
}

// Label returns class label
func (det Detection) Label() string {
	return det.label
}

// Embedding returns L2-normalized appearance vector or nil. Be careful: this is not copy
func (det Detection) Embedding() []float64 {
	return det.embedding
}
