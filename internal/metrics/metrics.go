package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters of one worker process
type Metrics struct {
	FramesRead          atomic.Uint64
	Detections          atomic.Uint64
	Crossings           atomic.Uint64
	EventsLogged        atomic.Uint64
	RecognitionFailures atomic.Uint64
	TrackerErrors       atomic.Uint64
	ProcessErrors       atomic.Uint64
	RecorderErrors      atomic.Uint64

	FrameLatencyMs atomic.Uint64

	mu          sync.RWMutex
	trackSource func() int

	recognitionLatency prometheus.Histogram
	registry           *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recognitionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stopline_recognition_seconds",
			Help:    "Plate recognition latency for crossing candidates",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) counter(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

func (m *Metrics) registerPrometheusMetrics() {
	m.counter("stopline_frames_read_total", "Total frames decoded from the video source", &m.FramesRead)
	m.counter("stopline_detections_total", "Total tracker detections received", &m.Detections)
	m.counter("stopline_crossings_total", "Total stop line crossings observed", &m.Crossings)
	m.counter("stopline_events_logged_total", "Total crossing events written to the event log", &m.EventsLogged)
	m.counter("stopline_recognition_failures_total", "Crossings whose plate could not be read", &m.RecognitionFailures)
	m.counter("stopline_tracker_errors_total", "Frames the tracker failed on", &m.TrackerErrors)
	m.counter("stopline_process_errors_total", "Detections that failed while being processed", &m.ProcessErrors)
	m.counter("stopline_recorder_errors_total", "Frames that could not be written to the annotated output", &m.RecorderErrors)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "stopline_frame_latency_ms",
			Help: "Processing time of the last frame in milliseconds",
		},
		func() float64 { return float64(m.FrameLatencyMs.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "stopline_tracks",
			Help: "Track ids held in the session track store",
		},
		func() float64 {
			m.mu.RLock()
			defer m.mu.RUnlock()
			if m.trackSource == nil {
				return 0
			}
			return float64(m.trackSource())
		},
	))

	m.registry.MustRegister(m.recognitionLatency)
}

// SetTrackSource sets the function reporting the current track store size
func (m *Metrics) SetTrackSource(fn func() int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackSource = fn
}

func (m *Metrics) UpdateFrameLatency(d time.Duration) {
	m.FrameLatencyMs.Store(uint64(d.Milliseconds()))
}

func (m *Metrics) ObserveRecognition(d time.Duration) {
	m.recognitionLatency.Observe(d.Seconds())
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
