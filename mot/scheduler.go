package mot

import (
	"context"
	"image"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrDetectTimeout is reported in FrameReport.DetectorErr when detector exceeded SchedulerConfig.DetectTimeout
var ErrDetectTimeout = errors.New("detector timed out")

// FrameReport is the outcome of a single processed frame
type FrameReport struct {
	StreamID uuid.UUID
	// Frame is the zero-based index of the frame in the stream
	Frame int
	// Detected is true when detector ran and succeeded on this frame
	Detected bool
	// DetectorErr is set when detector (or embedder) failed and the frame degraded to tracking-only
	DetectorErr error
	// Interval is the detection interval after this frame was observed
	Interval int
	// Recalculated is true when this frame closed a cadence window
	Recalculated bool
	// Tracks are confirmed tracks sorted by identity
	Tracks []TrackReport
	// Rejected holds validation errors of malformed detections dropped on this frame
	Rejected []error
}

// FrameScheduler drives one video stream: it decides per frame whether to run detector,
// feeds TrackRegistry and reports tracking quality back to CadenceController.
// Not safe for concurrent use: frames must be processed strictly in order.
type FrameScheduler struct {
	streamID  uuid.UUID
	detector  Detector
	embedder  Embedder
	registry  *TrackRegistry
	cadence   *CadenceController
	cfg       SchedulerConfig
	logger    Logger
	metrics   MetricsCollector
	clock     func() time.Time
	frame     int
	confirmed map[int64]struct{}
}

// NewFrameScheduler wires detector, registry and cadence controller of a single stream
func NewFrameScheduler(detector Detector, registry *TrackRegistry, cadence *CadenceController, cfg SchedulerConfig, opts ...Option) (*FrameScheduler, error) {
	if detector == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "detector must not be nil")
	}
	if registry == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "registry must not be nil")
	}
	if cadence == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "cadence controller must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := schedulerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = NewNopLogger()
	}
	if options.metrics == nil {
		options.metrics = NewNopMetrics()
	}
	if options.streamID == uuid.Nil {
		options.streamID = uuid.New()
	}
	if options.clock == nil {
		options.clock = time.Now
	}

	return &FrameScheduler{
		streamID: options.streamID,
		detector: detector,
		embedder: options.embedder,
		registry: registry,
		cadence:  cadence,
		cfg:      cfg,
		logger:   options.logger,
		metrics:  options.metrics,
		clock:    options.clock,
	}, nil
}

// NewFrameSchedulerFromConfig builds registry, cadence controller and scheduler from a single configuration.
// Registry shares scheduler's logger
func NewFrameSchedulerFromConfig(cfg Config, detector Detector, opts ...Option) (*FrameScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := schedulerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	registry, err := NewTrackRegistry(cfg.Tracker, nil, options.logger)
	if err != nil {
		return nil, errors.Wrap(err, "can't create track registry")
	}
	cadence, err := NewCadenceController(cfg.Cadence)
	if err != nil {
		return nil, errors.Wrap(err, "can't create cadence controller")
	}
	return NewFrameScheduler(detector, registry, cadence, cfg.Scheduler, opts...)
}

// StreamID returns identifier of the stream
func (fs *FrameScheduler) StreamID() uuid.UUID {
	return fs.streamID
}

// Registry returns underlying track registry
func (fs *FrameScheduler) Registry() *TrackRegistry {
	return fs.registry
}

// Cadence returns underlying cadence controller
func (fs *FrameScheduler) Cadence() *CadenceController {
	return fs.cadence
}

// Frame returns index of the next frame to be processed
func (fs *FrameScheduler) Frame() int {
	return fs.frame
}

// ProcessFrame handles one frame. Nil frame (typed nil pointer included) or frame with empty bounds
// means the frame was dropped upstream: tracks are coasted.
//
// Detector runs when registry is in cold start or cadence says so. Detector failures and timeouts
// never fail the call: the frame degrades to tracking-only and the error is reported in FrameReport.DetectorErr.
// The only returned error is cancellation of ctx, in which case no state is changed.
func (fs *FrameScheduler) ProcessFrame(ctx context.Context, frame image.Image) (FrameReport, error) {
	if err := ctx.Err(); err != nil {
		return FrameReport{}, errors.Wrapf(err, "frame %d", fs.frame)
	}
	frameIndex := fs.frame
	report := FrameReport{
		StreamID: fs.streamID,
		Frame:    frameIndex,
	}

	dropped := isDroppedFrame(frame)
	var detections []Detection
	runDetector := !dropped && (fs.registry.State() == RegistryColdStart || fs.cadence.ShouldDetect(frameIndex))
	if runDetector {
		raw, err := fs.detect(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return FrameReport{}, errors.Wrapf(ctx.Err(), "frame %d", frameIndex)
			}
			fs.logger.Warn("detector failed, tracking only", "stream_id", fs.streamID, "frame", frameIndex, "error", err)
			fs.metrics.RecordDetectorError()
			report.DetectorErr = err
		} else {
			report.Detected = true
			detections, report.Rejected = fs.accept(raw)
			if fs.embedder != nil && len(detections) > 0 {
				detections, err = fs.embed(ctx, frame, detections)
				if err != nil {
					if ctx.Err() != nil {
						return FrameReport{}, errors.Wrapf(ctx.Err(), "frame %d", frameIndex)
					}
					fs.logger.Warn("embedder failed, appearance ignored", "stream_id", fs.streamID, "frame", frameIndex, "error", err)
					fs.metrics.RecordDetectorError()
					report.DetectorErr = err
				}
			}
		}
	}

	// Commit point: nothing above has touched tracking state
	fs.frame++
	if fs.registry.State() == RegistryColdStart {
		// Identities confirmed before registry reset are gone for good
		fs.confirmed = nil
	}
	timestamp := fs.clock()
	var result UpdateResult
	if dropped {
		result = fs.registry.Coast(timestamp)
	} else {
		result = fs.registry.Update(detections, timestamp)
	}

	quality := FrameMetrics{
		Lost:        len(result.Evicted),
		Confidences: make([]float64, 0, len(detections)),
	}
	for i := range detections {
		quality.Confidences = append(quality.Confidences, detections[i].Confidence())
	}
	if report.Detected {
		quality.Switches = fs.switches(result.Confirmed)
	}
	previousInterval := fs.cadence.Interval()
	report.Recalculated = fs.cadence.Observe(quality)
	report.Interval = fs.cadence.Interval()
	report.Tracks = result.Confirmed

	if len(report.Rejected) > 0 {
		fs.metrics.RecordRejectedDetections(len(report.Rejected))
	}
	if len(result.Evicted) > 0 {
		fs.metrics.RecordEvictions(len(result.Evicted))
	}
	fs.metrics.RecordFrame(report.Detected)
	fs.metrics.RecordTracks(fs.registry.Len(), len(result.Confirmed))
	fs.metrics.RecordInterval(report.Interval)
	if report.Recalculated {
		fs.metrics.RecordRecalculation(previousInterval, report.Interval)
		fs.logger.Info("detection interval recalculated", "stream_id", fs.streamID, "frame", frameIndex, "previous", previousInterval, "current", report.Interval)
	}
	return report, nil
}

// isDroppedFrame reports whether there is no image to run detector on
func isDroppedFrame(frame image.Image) bool {
	if frame == nil {
		return true
	}
	value := reflect.ValueOf(frame)
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if value.IsNil() {
			return true
		}
	}
	return frame.Bounds().Empty()
}

// detect calls detector bounded by DetectTimeout. Detector that ignores ctx is abandoned on timeout
func (fs *FrameScheduler) detect(ctx context.Context, frame image.Image) ([]RawDetection, error) {
	if fs.cfg.DetectTimeout <= 0 {
		raw, err := fs.detector.Detect(ctx, frame)
		if err != nil {
			return nil, errors.Wrap(err, "detector")
		}
		return raw, nil
	}

	detectCtx, cancel := context.WithTimeout(ctx, fs.cfg.DetectTimeout)
	defer cancel()
	type detectResult struct {
		raw []RawDetection
		err error
	}
	done := make(chan detectResult, 1)
	go func() {
		raw, err := fs.detector.Detect(detectCtx, frame)
		done <- detectResult{raw: raw, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, errors.Wrapf(ErrDetectTimeout, "after %s", fs.cfg.DetectTimeout)
			}
			return nil, errors.Wrap(res.err, "detector")
		}
		return res.raw, nil
	case <-detectCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(ErrDetectTimeout, "after %s", fs.cfg.DetectTimeout)
	}
}

// accept validates raw detections and drops those below confidence threshold.
// Malformed detections are returned as errors and never reach the registry
func (fs *FrameScheduler) accept(raw []RawDetection) ([]Detection, []error) {
	detections := make([]Detection, 0, len(raw))
	var rejected []error
	for i := range raw {
		det, err := NewDetectionFromRaw(raw[i], fs.cfg.Labels)
		if err != nil {
			fs.logger.Debug("detection rejected", "stream_id", fs.streamID, "frame", fs.frame, "index", i, "error", err)
			rejected = append(rejected, errors.Wrapf(err, "detection %d", i))
			continue
		}
		if det.Confidence() < fs.cfg.ConfidenceThreshold {
			continue
		}
		detections = append(detections, det)
	}
	return detections, rejected
}

// embed attaches appearance vectors. On failure detections are returned without embeddings
func (fs *FrameScheduler) embed(ctx context.Context, frame image.Image, detections []Detection) ([]Detection, error) {
	embedded := make([]Detection, len(detections))
	for i := range detections {
		vector, err := fs.embedder.Embed(ctx, frame, detections[i].BBox())
		if err != nil {
			return detections, errors.Wrapf(err, "embedder, detection %d", i)
		}
		embedded[i] = detections[i].WithEmbedding(vector)
	}
	return embedded, nil
}

// switches counts identities that appeared or disappeared among confirmed tracks since the previous detection cycle
func (fs *FrameScheduler) switches(confirmed []TrackReport) int {
	current := make(map[int64]struct{}, len(confirmed))
	for _, track := range confirmed {
		current[track.ID] = struct{}{}
	}
	previous := fs.confirmed
	fs.confirmed = current
	if previous == nil {
		return 0
	}
	count := 0
	for id := range current {
		if _, ok := previous[id]; !ok {
			count++
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			count++
		}
	}
	return count
}
