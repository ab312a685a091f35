// Package metrics provides Prometheus metrics for the steadi scoring engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// scoreBuckets spans the bounded [0,100] score range.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100} //nolint:gochecknoglobals // shared bucket layout

// Manager manages all Prometheus metrics for the steadi service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Frame pipeline metrics
	framesProcessed *prometheus.CounterVec
	framesDropped   prometheus.Counter
	frameLatency    prometheus.Histogram

	// Session lifecycle metrics
	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	sessionsSkipped   *prometheus.CounterVec
	sessionsRestarted *prometheus.CounterVec
	activeSessions    prometheus.Gauge

	// Scoring metrics
	liveScore       *prometheus.GaugeVec
	finalScore      *prometheus.HistogramVec
	onTargetPercent prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Result store metrics
	storeResultsTotal prometheus.Gauge
	storePutLatency   prometheus.Histogram
	storeQueryLatency prometheus.Histogram

	// Error tracking
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "steadi",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "frames_processed_total",
			Help:      "Total number of landmark frames fed into sessions",
		},
		[]string{"task"},
	)

	m.framesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_dropped_total",
		Help:      "Total number of frames skipped because the landmark source produced no detection",
	})

	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_processing_latency_milliseconds",
		Help:      "Per-frame append+rescore latency in milliseconds (must stay within the frame interval)",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	})

	m.sessionsStarted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_started_total",
			Help:      "Total number of task sessions that entered tracking",
		},
		[]string{"task"},
	)

	m.sessionsCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_completed_total",
			Help:      "Total number of task sessions that produced a final score",
		},
		[]string{"task"},
	)

	m.sessionsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_skipped_total",
			Help:      "Total number of task sessions ended by an explicit skip",
		},
		[]string{"task"},
	)

	m.sessionsRestarted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_restarted_total",
			Help:      "Total number of in-session restarts (buffer discarded)",
		},
		[]string{"task"},
	)

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Current number of sessions held by the registry",
	})

	m.liveScore = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "live_score",
			Help:      "Most recent live score emitted per task kind",
		},
		[]string{"task"},
	)

	m.finalScore = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "final_score",
			Help:      "Distribution of final session scores per task kind",
			Buckets:   scoreBuckets,
		},
		[]string{"task"},
	)

	m.onTargetPercent = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "on_target_percent",
		Help:      "Distribution of end-of-session on-target percentages (ocular task)",
		Buckets:   scoreBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.storeResultsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_results_total",
		Help:      "Number of result records held by the store",
	})

	m.storePutLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_put_latency_milliseconds",
		Help:      "Result store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Result store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordFrameProcessed increments the frames processed counter for a task.
func RecordFrameProcessed(task string) {
	globalManager.framesProcessed.WithLabelValues(task).Inc()
}

// RecordFrameDropped increments the dropped-frame counter.
func RecordFrameDropped() {
	globalManager.framesDropped.Inc()
}

// RecordFrameLatency records one append+rescore invocation's latency.
func RecordFrameLatency(latencyMs float64) {
	globalManager.frameLatency.Observe(latencyMs)
}

// RecordSessionStarted increments the started-session counter for a task.
func RecordSessionStarted(task string) {
	globalManager.sessionsStarted.WithLabelValues(task).Inc()
}

// RecordSessionCompleted increments the completed-session counter for a task.
func RecordSessionCompleted(task string) {
	globalManager.sessionsCompleted.WithLabelValues(task).Inc()
}

// RecordSessionSkipped increments the skipped-session counter for a task.
func RecordSessionSkipped(task string) {
	globalManager.sessionsSkipped.WithLabelValues(task).Inc()
}

// RecordSessionRestarted increments the restarted-session counter for a task.
func RecordSessionRestarted(task string) {
	globalManager.sessionsRestarted.WithLabelValues(task).Inc()
}

// UpdateActiveSessions sets the current session registry size.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// UpdateLiveScore sets the most recent live score for a task kind.
func UpdateLiveScore(task string, score float64) {
	globalManager.liveScore.WithLabelValues(task).Set(score)
}

// RecordFinalScore records one final session score for a task kind.
func RecordFinalScore(task string, score float64) {
	globalManager.finalScore.WithLabelValues(task).Observe(score)
}

// RecordOnTargetPercent records an end-of-session on-target percentage.
func RecordOnTargetPercent(pct float64) {
	globalManager.onTargetPercent.Observe(pct)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateStoreResultsTotal sets the number of stored result records.
func UpdateStoreResultsTotal(count int) {
	globalManager.storeResultsTotal.Set(float64(count))
}

// RecordStorePutLatency records result store write latency.
func RecordStorePutLatency(latencyMs float64) {
	globalManager.storePutLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records result store read latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records one GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager,
// for exposing via the /metrics HTTP handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
