package mot

// MetricsCollector receives per-frame observability signals from FrameScheduler.
// Implementations must be cheap: they are called on every frame.
// See package metrics for Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordFrame is called once per processed frame
	RecordFrame(detected bool)
	// RecordDetectorError is called when detector or embedder failed and the frame degraded to tracking-only
	RecordDetectorError()
	// RecordRejectedDetections is called with the number of malformed detections dropped on the frame
	RecordRejectedDetections(n int)
	// RecordTracks is called with the number of live and confirmed tracks after update
	RecordTracks(live, confirmed int)
	// RecordEvictions is called with the number of tracks evicted on the frame
	RecordEvictions(n int)
	// RecordInterval is called with the current detection interval
	RecordInterval(interval int)
	// RecordRecalculation is called when interval was recalculated
	RecordRecalculation(previous, current int)
}

// NopMetrics discards everything. It is the default collector.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates collector that records nothing
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordFrame(_ bool)             {}
func (n *NopMetrics) RecordDetectorError()           {}
func (n *NopMetrics) RecordRejectedDetections(_ int) {}
func (n *NopMetrics) RecordTracks(_, _ int)          {}
func (n *NopMetrics) RecordEvictions(_ int)          {}
func (n *NopMetrics) RecordInterval(_ int)           {}
func (n *NopMetrics) RecordRecalculation(_, _ int)   {}
