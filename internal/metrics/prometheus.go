// File: internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for regboard
type PrometheusMetrics struct {
	// Ingest metrics
	SnapshotsIngestedTotal *prometheus.CounterVec
	ParseFailuresTotal     *prometheus.CounterVec
	TotalMismatchesTotal   *prometheus.CounterVec
	IngestDuration         *prometheus.HistogramVec

	// Render metrics
	RendersTotal        *prometheus.CounterVec
	RenderDuration      prometheus.Histogram
	LastRenderTimestamp prometheus.Gauge

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec
	SnapshotsStored           *prometheus.GaugeVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Ingest metrics
		SnapshotsIngestedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_snapshots_ingested_total",
				Help: "Total number of snapshots ingested from the registration log",
			},
			[]string{"season"},
		),

		ParseFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_parse_failures_total",
				Help: "Total number of malformed snapshot log lines",
			},
			[]string{"season"},
		),

		TotalMismatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_total_mismatches_total",
				Help: "Snapshots whose TotalCount differs from the sum of status counts",
			},
			[]string{"season"},
		),

		IngestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regboard_ingest_duration_seconds",
				Help:    "Time spent ingesting one snapshot log",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"season"},
		),

		// Render metrics
		RendersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_renders_total",
				Help: "Total number of chart renders",
			},
			[]string{"status"},
		),

		RenderDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "regboard_render_duration_seconds",
				Help:    "Time spent rendering the summary chart",
				Buckets: prometheus.DefBuckets,
			},
		),

		LastRenderTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "regboard_last_render_timestamp_seconds",
				Help: "Unix time of the last successful chart render",
			},
		),

		// Storage metrics
		DatabaseOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_database_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "table", "status"},
		),

		DatabaseOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regboard_database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),

		SnapshotsStored: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regboard_snapshots_stored",
				Help: "Number of snapshots currently stored per season",
			},
			[]string{"season"},
		),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regboard_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Application health metrics
		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "regboard_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regboard_component_health",
				Help: "Health status of application components (1 healthy, 0 unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "regboard_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "regboard_goroutines",
				Help: "Number of running goroutines",
			},
		),
	}
}

// RecordSnapshotsIngested records ingested snapshots for a season
func (m *PrometheusMetrics) RecordSnapshotsIngested(season string, count int) {
	m.SnapshotsIngestedTotal.WithLabelValues(season).Add(float64(count))
}

// RecordParseFailure records a malformed log line
func (m *PrometheusMetrics) RecordParseFailure(season string) {
	m.ParseFailuresTotal.WithLabelValues(season).Inc()
}

// RecordTotalMismatch records a snapshot failing the total sanity check
func (m *PrometheusMetrics) RecordTotalMismatch(season string) {
	m.TotalMismatchesTotal.WithLabelValues(season).Inc()
}

// RecordIngestDuration records the time taken to ingest one log
func (m *PrometheusMetrics) RecordIngestDuration(season string, duration time.Duration) {
	m.IngestDuration.WithLabelValues(season).Observe(duration.Seconds())
}

// RecordRender records a chart render attempt
func (m *PrometheusMetrics) RecordRender(status string, duration time.Duration) {
	m.RendersTotal.WithLabelValues(status).Inc()
	m.RenderDuration.Observe(duration.Seconds())
	if status == "success" {
		m.LastRenderTimestamp.SetToCurrentTime()
	}
}

// RecordDatabaseOperation records a database operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, table, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, table, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// UpdateSnapshotsStored updates the stored snapshot gauge for a season
func (m *PrometheusMetrics) UpdateSnapshotsStored(season string, count int64) {
	m.SnapshotsStored.WithLabelValues(season).Set(float64(count))
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
