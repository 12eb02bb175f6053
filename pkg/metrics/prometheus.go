// Package metrics provides Prometheus metrics for the comprank service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for the comprank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ranking Metrics - What the service is for
	rankingsTotal  prometheus.Counter
	rankingLatency prometheus.Histogram
	rankingErrors  *prometheus.CounterVec
	topScore       prometheus.Gauge

	// Pool Metrics - Composition data freshness
	poolSize        prometheus.Gauge
	poolLoadLatency prometheus.Histogram
	poolReloads     prometheus.Counter

	// External Process Metrics - Meta refresh and unit detection
	processRuns     *prometheus.CounterVec
	processLatency  *prometheus.HistogramVec
	unitsDetected   prometheus.Counter
	lastRefreshUnix prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "comprank",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rankingsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rankings_total",
		Help:      "Total number of successful ranking requests",
	})

	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_latency_milliseconds",
		Help:      "Histogram of end-to-end ranking latency in milliseconds, pool load included",
		Buckets:   m.histogramBuckets,
	})

	m.rankingErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ranking_errors_total",
			Help:      "Total number of failed ranking requests by error kind",
		},
		[]string{"kind"},
	)

	m.topScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "top_score",
		Help:      "Score of the best composition in the last ranking",
	})

	m.poolSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_size",
		Help:      "Number of compositions in the last loaded pool",
	})

	m.poolLoadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_load_latency_milliseconds",
		Help:      "Time spent reading and parsing the composition pool file",
		Buckets:   m.histogramBuckets,
	})

	m.poolReloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_invalidations_total",
		Help:      "Total number of pool cache invalidations caused by file changes",
	})

	m.processRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "process_runs_total",
			Help:      "Total number of external process invocations by collaborator and outcome",
		},
		[]string{"collaborator", "outcome"},
	)

	m.processLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "process_latency_milliseconds",
			Help:      "External process run time in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"collaborator"},
	)

	m.unitsDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "units_detected_total",
		Help:      "Total number of units reported by the detector",
	})

	m.lastRefreshUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_meta_refresh_unixtime",
		Help:      "Unix time of the last successful meta refresh",
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

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
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

// RecordRanking records a successful ranking, its latency and best score.
// An empty result leaves the top score gauge untouched.
func RecordRanking(latencyMs float64, results int, topScore float64) {
	globalManager.rankingsTotal.Inc()
	globalManager.rankingLatency.Observe(latencyMs)
	if results > 0 {
		globalManager.topScore.Set(topScore)
	}
}

// RecordRankingError increments the ranking error counter for kind.
func RecordRankingError(kind string) {
	globalManager.rankingErrors.WithLabelValues(kind).Inc()
}

// UpdatePoolSize sets the number of compositions in the pool.
func UpdatePoolSize(size int) {
	globalManager.poolSize.Set(float64(size))
}

// RecordPoolLoad records how long reading the pool took.
func RecordPoolLoad(latencyMs float64) {
	globalManager.poolLoadLatency.Observe(latencyMs)
}

// RecordPoolReload increments the pool invalidation counter.
func RecordPoolReload() {
	globalManager.poolReloads.Inc()
}

// RecordProcessRun records one external process invocation.
func RecordProcessRun(collaborator, outcome string, latencyMs float64) error {
	if outcome != OutcomeSuccess && outcome != OutcomeFailure {
		return ErrUnknownOutcome
	}
	globalManager.processRuns.WithLabelValues(collaborator, outcome).Inc()
	globalManager.processLatency.WithLabelValues(collaborator).Observe(latencyMs)
	return nil
}

// RecordUnitsDetected adds n detected units.
func RecordUnitsDetected(n int) {
	globalManager.unitsDetected.Add(float64(n))
}

// UpdateLastRefresh sets the time of the last successful meta refresh.
func UpdateLastRefresh(unix int64) {
	globalManager.lastRefreshUnix.Set(float64(unix))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
