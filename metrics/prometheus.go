// Package metrics provides Prometheus-backed implementation of mot.MetricsCollector.
package metrics

import (
	"sync"

	"github.com/LdDl/mot-cadence/mot"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements mot.MetricsCollector backed by Prometheus.
// Metrics are registered lazily on the first recorded value.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	frames             *prometheus.CounterVec
	detectorErrors     prometheus.Counter
	rejectedDetections prometheus.Counter
	liveTracks         prometheus.Gauge
	confirmedTracks    prometheus.Gauge
	evictions          prometheus.Counter
	interval           prometheus.Gauge
	recalculations     *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ mot.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "mot" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mot"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.frames = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "frames_total",
			Help:      "Total processed frames by mode (detect, track).",
		}, []string{"mode"})

		p.detectorErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "detector_errors_total",
			Help:      "Total detector or embedder failures that degraded frame to tracking only.",
		})

		p.rejectedDetections = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "rejected_detections_total",
			Help:      "Total malformed detections dropped before tracking.",
		})

		p.liveTracks = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "tracks_live",
			Help:      "Current number of live tracks (tentative and confirmed).",
		})

		p.confirmedTracks = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "tracks_confirmed",
			Help:      "Current number of confirmed tracks.",
		})

		p.evictions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "evictions_total",
			Help:      "Total evicted tracks.",
		})

		p.interval = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "cadence",
			Name:      "interval_frames",
			Help:      "Current detection interval in frames.",
		})

		p.recalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "cadence",
			Name:      "recalculations_total",
			Help:      "Total interval recalculations by direction (up, down, same).",
		}, []string{"direction"})

		p.reg.MustRegister(p.frames)
		p.reg.MustRegister(p.detectorErrors)
		p.reg.MustRegister(p.rejectedDetections)
		p.reg.MustRegister(p.liveTracks)
		p.reg.MustRegister(p.confirmedTracks)
		p.reg.MustRegister(p.evictions)
		p.reg.MustRegister(p.interval)
		p.reg.MustRegister(p.recalculations)
	})
}

// RecordFrame increments frame counter by mode.
func (p *PrometheusCollector) RecordFrame(detected bool) {
	p.ensureRegistered()
	if detected {
		p.frames.WithLabelValues("detect").Inc()
	} else {
		p.frames.WithLabelValues("track").Inc()
	}
}

// RecordDetectorError increments detector failures.
func (p *PrometheusCollector) RecordDetectorError() {
	p.ensureRegistered()
	p.detectorErrors.Inc()
}

// RecordRejectedDetections adds dropped detections.
func (p *PrometheusCollector) RecordRejectedDetections(n int) {
	p.ensureRegistered()
	p.rejectedDetections.Add(float64(n))
}

// RecordTracks sets track gauges.
func (p *PrometheusCollector) RecordTracks(live, confirmed int) {
	p.ensureRegistered()
	p.liveTracks.Set(float64(live))
	p.confirmedTracks.Set(float64(confirmed))
}

// RecordEvictions adds evicted tracks.
func (p *PrometheusCollector) RecordEvictions(n int) {
	p.ensureRegistered()
	p.evictions.Add(float64(n))
}

// RecordInterval sets interval gauge.
func (p *PrometheusCollector) RecordInterval(interval int) {
	p.ensureRegistered()
	p.interval.Set(float64(interval))
}

// RecordRecalculation increments recalculation counter by direction.
func (p *PrometheusCollector) RecordRecalculation(previous, current int) {
	p.ensureRegistered()
	switch {
	case current > previous:
		p.recalculations.WithLabelValues("up").Inc()
	case current < previous:
		p.recalculations.WithLabelValues("down").Inc()
	default:
		p.recalculations.WithLabelValues("same").Inc()
	}
}
