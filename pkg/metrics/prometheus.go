// Package metrics provides Prometheus metrics for the transform diagnostics service.
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

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	metricPrefix    string
	registry        prometheus.Registerer

	// Figure metrics
	figureBuilds        *prometheus.CounterVec
	figureBuildDuration *prometheus.HistogramVec
	figureTraces        *prometheus.GaugeVec

	// Transform operations: quantiles and normalize
	operations       *prometheus.CounterVec
	operationRecords *prometheus.CounterVec
	operationErrors  *prometheus.CounterVec

	// Dataset metrics
	datasetRecords      prometheus.Gauge
	datasetColumns      prometheus.Gauge
	datasetReloads      *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	datasetLastLoadUnix prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	schemaRejections    *prometheus.CounterVec

	// System metrics
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
		namespace:       "tdiag",
		subsystem:       "diagnostics",
		latencyBuckets:  []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.figureBuilds = auto.NewCounterVec(
		m.counterOpts("figure_builds_total", "Total number of figures built by kind and result"),
		[]string{"kind", "result"},
	)
	m.figureBuildDuration = auto.NewHistogramVec(
		m.histogramOpts("figure_build_duration_milliseconds", "Figure build duration in milliseconds", m.latencyBuckets),
		[]string{"kind"},
	)
	m.figureTraces = auto.NewGaugeVec(
		m.gaugeOpts("figure_traces", "Trace count of the last figure built by kind"),
		[]string{"kind"},
	)

	m.operations = auto.NewCounterVec(
		m.counterOpts("operations_total", "Total number of transform operations by name"),
		[]string{"operation"},
	)
	m.operationRecords = auto.NewCounterVec(
		m.counterOpts("operation_records_total", "Total number of records consumed by operations"),
		[]string{"operation"},
	)
	m.operationErrors = auto.NewCounterVec(
		m.counterOpts("operation_errors_total", "Total number of operation failures by error kind"),
		[]string{"operation", "kind"},
	)

	m.datasetRecords = auto.NewGauge(m.gaugeOpts("dataset_records", "Rows in the loaded dataset"))
	m.datasetColumns = auto.NewGauge(m.gaugeOpts("dataset_metric_columns", "Metric columns in the loaded dataset"))
	m.datasetReloads = auto.NewCounterVec(
		m.counterOpts("dataset_reloads_total", "Total number of dataset loads by result"),
		[]string{"result"},
	)
	m.datasetLoadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset load duration in milliseconds", m.latencyBuckets),
	)
	m.datasetLastLoadUnix = auto.NewGauge(m.gaugeOpts("dataset_last_load_unix", "Unix timestamp of the last successful load"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.schemaRejections = auto.NewCounterVec(
		m.counterOpts("schema_rejections_total", "Request bodies rejected by schema validation"),
		[]string{"schema"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RefreshInterval returns how often gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordFigure records one figure build.
func (m *Manager) RecordFigure(kind string, traces int, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.figureBuilds.WithLabelValues(kind, result).Inc()
	m.figureBuildDuration.WithLabelValues(kind).Observe(latencyMs)
	if err == nil {
		m.figureTraces.WithLabelValues(kind).Set(float64(traces))
	}
}

// RecordOperation records a quantile or normalize call over n records.
func (m *Manager) RecordOperation(operation string, n int) {
	if !m.enabled {
		return
	}
	m.operations.WithLabelValues(operation).Inc()
	m.operationRecords.WithLabelValues(operation).Add(float64(n))
}

// RecordOperationError records a failed operation by error kind.
func (m *Manager) RecordOperationError(operation, kind string) {
	if !m.enabled {
		return
	}
	m.operationErrors.WithLabelValues(operation, kind).Inc()
}

// RecordDatasetLoad records a dataset load attempt.
func (m *Manager) RecordDatasetLoad(records, columns int, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	m.datasetLoadDuration.Observe(latencyMs)
	if err != nil {
		m.datasetReloads.WithLabelValues("error").Inc()
		return
	}
	m.datasetReloads.WithLabelValues("ok").Inc()
	m.datasetRecords.Set(float64(records))
	m.datasetColumns.Set(float64(columns))
	m.datasetLastLoadUnix.Set(float64(time.Now().Unix()))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordSchemaRejection counts a request body that failed validation.
func (m *Manager) RecordSchemaRejection(schema string) {
	if !m.enabled {
		return
	}
	m.schemaRejections.WithLabelValues(schema).Inc()
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause records a GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Global helpers backed by the default manager.

// RecordFigure records one figure build on the global manager.
func RecordFigure(kind string, traces int, latencyMs float64, err error) {
	globalManager.RecordFigure(kind, traces, latencyMs, err)
}

// RecordOperation records an operation on the global manager.
func RecordOperation(operation string, n int) {
	globalManager.RecordOperation(operation, n)
}

// RecordOperationError records an operation failure on the global manager.
func RecordOperationError(operation, kind string) {
	globalManager.RecordOperationError(operation, kind)
}

// RecordDatasetLoad records a dataset load on the global manager.
func RecordDatasetLoad(records, columns int, latencyMs float64, err error) {
	globalManager.RecordDatasetLoad(records, columns, latencyMs, err)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint records an endpoint error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordSchemaRejection records a schema rejection on the global manager.
func RecordSchemaRejection(schema string) {
	globalManager.RecordSchemaRejection(schema)
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
	globalManager.RecordGCPause(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns the system gauge sampling interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
