// Package metrics exposes Prometheus collectors for uploads, runs and HTTP
// traffic. Metrics implements core.Recorder so the service reports into it
// without importing Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sheetload/internal/core"
)

const namespace = "sheetload"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	filesDecoded  *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
	rowsDecoded   *prometheus.CounterVec
	fileBytes     *prometheus.HistogramVec
	runsStarted   *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
	runRows       *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsRejected  *prometheus.CounterVec
	activeRuns    prometheus.Gauge
	liveSessions  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

var _ core.Recorder = (*Metrics)(nil)

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		filesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "decoded_total",
			Help:      "Files decoded successfully",
		}, []string{"format"}),

		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "decode_errors_total",
			Help:      "Files rejected or failing to decode",
		}, []string{"format"}),

		rowsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "rows_total",
			Help:      "Records decoded from uploaded files",
		}, []string{"format"}),

		fileBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "size_bytes",
			Help:      "Size of decoded files in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9), // 1KiB to 64MiB
		}, []string{"format"}),

		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "started_total",
			Help:      "Processing runs started",
		}, []string{"table"}),

		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "finished_total",
			Help:      "Processing runs finished, by terminal phase",
		}, []string{"table", "phase"}),

		runRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "rows_total",
			Help:      "Rows counted by finished runs, by outcome",
		}, []string{"table", "outcome"}), // outcome: valid, error

		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Processing run duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"table"}),

		runsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "rejected_total",
			Help:      "Run requests refused before starting",
		}, []string{"reason"}),

		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "active",
			Help:      "Runs currently holding a slot",
		}),

		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "live",
			Help:      "Sessions held in memory",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),

		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesDecoded,
		m.decodeErrors,
		m.rowsDecoded,
		m.fileBytes,
		m.runsStarted,
		m.runsFinished,
		m.runRows,
		m.runDuration,
		m.runsRejected,
		m.activeRuns,
		m.liveSessions,
		m.httpRequests,
		m.httpDurations,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// FileDecoded implements core.Recorder.
func (m *Metrics) FileDecoded(format string, rows int, bytes int64) {
	m.filesDecoded.WithLabelValues(format).Inc()
	m.rowsDecoded.WithLabelValues(format).Add(float64(rows))
	m.fileBytes.WithLabelValues(format).Observe(float64(bytes))
}

// DecodeFailed implements core.Recorder.
func (m *Metrics) DecodeFailed(format string) {
	m.decodeErrors.WithLabelValues(format).Inc()
}

// RunStarted implements core.Recorder.
func (m *Metrics) RunStarted(table string) {
	m.runsStarted.WithLabelValues(table).Inc()
}

// RunFinished implements core.Recorder.
func (m *Metrics) RunFinished(table string, phase core.RunPhase, valid, errors int, d time.Duration) {
	m.runsFinished.WithLabelValues(table, string(phase)).Inc()
	m.runRows.WithLabelValues(table, "valid").Add(float64(valid))
	m.runRows.WithLabelValues(table, "error").Add(float64(errors))
	m.runDuration.WithLabelValues(table).Observe(d.Seconds())
}

// RunRejected implements core.Recorder.
func (m *Metrics) RunRejected(reason string) {
	m.runsRejected.WithLabelValues(reason).Inc()
}

// ActiveRuns implements core.Recorder.
func (m *Metrics) ActiveRuns(n int) {
	m.activeRuns.Set(float64(n))
}

// Sessions implements core.Recorder.
func (m *Metrics) Sessions(n int) {
	m.liveSessions.Set(float64(n))
}

// ObserveRequest records one served HTTP request. route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(d.Seconds())
}
