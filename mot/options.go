package mot

import (
	"time"

	"github.com/google/uuid"
)

// Option configures a FrameScheduler with optional dependencies.
type Option func(*schedulerOptions)

// schedulerOptions holds optional FrameScheduler configuration.
type schedulerOptions struct {
	logger   Logger
	metrics  MetricsCollector
	embedder Embedder
	streamID uuid.UUID
	clock    func() time.Time
}

// WithLogger sets a logger.
//
// Example:
//
//	logger := mot.NewSlogLogger(slog.Default())
//	scheduler, err := mot.NewFrameScheduler(detector, registry, cadence, cfg, mot.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *schedulerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "mot")
//	scheduler, err := mot.NewFrameScheduler(detector, registry, cadence, cfg, mot.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *schedulerOptions) {
		o.metrics = metrics
	}
}

// WithEmbedder sets appearance model. Every accepted detection gets an embedding of its region
func WithEmbedder(embedder Embedder) Option {
	return func(o *schedulerOptions) {
		o.embedder = embedder
	}
}

// WithStreamID sets stream identifier reported in every FrameReport. Random UUID is generated when omitted
func WithStreamID(id uuid.UUID) Option {
	return func(o *schedulerOptions) {
		o.streamID = id
	}
}

// WithClock overrides time source used for track timestamps
func WithClock(clock func() time.Time) Option {
	return func(o *schedulerOptions) {
		o.clock = clock
	}
}
