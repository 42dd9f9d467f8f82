package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcomes recorded by the matrix store.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeSuccess = "success"
)

// Manager manages all Prometheus metrics for the skill matrix client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Gateway
	gatewayRequests        *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec
	gatewayErrors          *prometheus.CounterVec

	// Matrix state
	matrixLoads        *prometheus.CounterVec
	matrixLoadDuration prometheus.Histogram
	matrixEmployees    prometheus.Gauge
	matrixColumns      prometheus.Gauge
	matrixScores       prometheus.Gauge
	scoreUpdates       *prometheus.CounterVec

	// Settings and session
	settingsUpdates      *prometheus.CounterVec
	sessionInvalidations prometheus.Counter
	reloadSignals        prometheus.Counter

	// Local HTTP facade
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillmatrix",
		subsystem:        "client",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.gatewayRequests = m.counterVec("gateway_requests_total",
		"Total number of backend API requests by endpoint, method and status code",
		"endpoint", "method", "status_code")
	m.gatewayRequestDuration = m.histogramVec("gateway_request_duration_milliseconds",
		"Backend API request duration in milliseconds",
		"endpoint", "method")
	m.gatewayErrors = m.counterVec("gateway_errors_total",
		"Total number of backend API failures by error kind",
		"kind")

	m.matrixLoads = m.counterVec("matrix_loads_total",
		"Matrix load completions by outcome (applied, stale, failed)",
		"outcome")
	m.matrixLoadDuration = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matrix_load_duration_milliseconds",
		Help:      "Matrix load round-trip duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.matrixEmployees = m.gauge("matrix_employees", "Employees in the current matrix snapshot")
	m.matrixColumns = m.gauge("matrix_columns", "Training columns in the current matrix snapshot")
	m.matrixScores = m.gauge("matrix_scores", "Score cells in the current matrix snapshot")
	m.scoreUpdates = m.counterVec("score_updates_total",
		"Score updates by outcome (success, failed)",
		"outcome")

	m.settingsUpdates = m.counterVec("settings_updates_total",
		"Settings mutations by operation and outcome",
		"operation", "outcome")
	m.sessionInvalidations = m.counter("session_invalidations_total",
		"Sessions dropped after the backend rejected the token")
	m.reloadSignals = m.counter("reload_signals_total",
		"Matrix reload signals published")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of facade HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"Facade HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.rateLimited = m.counter("http_rate_limited_total",
		"Facade HTTP requests rejected by the rate limiter")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component",
		"component", "error_type")
}

// RecordGatewayRequest records one backend API round trip.
func RecordGatewayRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.gatewayRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.gatewayRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// RecordGatewayError increments the gateway error counter for kind.
func RecordGatewayError(kind string) {
	globalManager.gatewayErrors.WithLabelValues(kind).Inc()
}

// RecordMatrixLoad records a matrix load completion.
func RecordMatrixLoad(outcome string, durationMs float64) error {
	switch outcome {
	case OutcomeApplied, OutcomeStale, OutcomeFailed:
	default:
		return ErrUnknownOutcome
	}
	globalManager.matrixLoads.WithLabelValues(outcome).Inc()
	globalManager.matrixLoadDuration.Observe(durationMs)
	return nil
}

// UpdateMatrixSize sets the snapshot size gauges.
func UpdateMatrixSize(employees, columns, scores int) {
	globalManager.matrixEmployees.Set(float64(employees))
	globalManager.matrixColumns.Set(float64(columns))
	globalManager.matrixScores.Set(float64(scores))
}

// RecordScoreUpdate records a score update outcome.
func RecordScoreUpdate(outcome string) {
	globalManager.scoreUpdates.WithLabelValues(outcome).Inc()
}

// RecordSettingsUpdate records a settings mutation outcome.
func RecordSettingsUpdate(operation, outcome string) {
	globalManager.settingsUpdates.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionInvalidated increments the session invalidation counter.
func RecordSessionInvalidated() {
	globalManager.sessionInvalidations.Inc()
}

// RecordReloadSignal increments the reload signal counter.
func RecordReloadSignal() {
	globalManager.reloadSignals.Inc()
}

// RecordHTTPRequest records a facade HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records facade HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate limited counter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
