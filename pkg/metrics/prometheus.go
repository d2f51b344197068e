// Package metrics provides Prometheus metrics for the fairtouch attribution
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// touchpointBuckets sizes the touchpoints-per-request histogram around the
// exact/Monte Carlo boundary.
var touchpointBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the fairtouch service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core business metrics
	attributionsComputed  *prometheus.CounterVec
	attributionFailures   *prometheus.CounterVec
	computeLatency        prometheus.Histogram
	touchpointsPerRequest prometheus.Histogram

	// Engine metrics
	permutationsEvaluated prometheus.Counter
	evaluatorCalls        prometheus.Counter
	memoHits              prometheus.Counter

	// Result sink metrics
	resultsStored prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "fairtouch",
		subsystem:        "attribution",
		histogramBuckets: prometheus.DefBuckets,
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

	m.attributionsComputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "computed_total",
		Help:      "Total attributions computed, labeled by method",
	}, []string{"method"})

	m.attributionFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "failures_total",
		Help:      "Total failed attribution requests, labeled by error kind",
	}, []string{"kind"})

	m.computeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compute_latency_milliseconds",
		Help:      "Histogram of end-to-end attribution computation latency",
		Buckets:   m.histogramBuckets,
	})

	m.touchpointsPerRequest = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "touchpoints_per_request",
		Help:      "Histogram of touchpoint counts per attribution request",
		Buckets:   touchpointBuckets,
	})

	m.permutationsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "permutations_evaluated_total",
		Help:      "Total permutations walked across exact and Monte Carlo paths",
	})

	m.evaluatorCalls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluator_calls_total",
		Help:      "Total coalition value evaluator invocations (memo misses)",
	})

	m.memoHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "memo_hits_total",
		Help:      "Total coalition values served from per-worker memo caches",
	})

	m.resultsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_stored",
		Help:      "Attribution results currently held by the result sink",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration by endpoint, method and status",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

// RecordAttribution records a completed attribution and its latency.
func RecordAttribution(method string, latencyMs float64) {
	globalManager.attributionsComputed.WithLabelValues(method).Inc()
	globalManager.computeLatency.Observe(latencyMs)
}

// RecordAttributionFailure records a failed attribution by error kind.
func RecordAttributionFailure(kind string) {
	globalManager.attributionFailures.WithLabelValues(kind).Inc()
}

// ObserveTouchpoints records the touchpoint count of one request.
func ObserveTouchpoints(count int) {
	globalManager.touchpointsPerRequest.Observe(float64(count))
}

// RecordEngineWork records one computation's permutation and evaluator counts.
func RecordEngineWork(permutations, evaluations, memoHits int64) {
	globalManager.permutationsEvaluated.Add(float64(permutations))
	globalManager.evaluatorCalls.Add(float64(evaluations))
	globalManager.memoHits.Add(float64(memoHits))
}

// UpdateResultsStored sets the current result sink size.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records one HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}
