// Package observability exposes Prometheus metrics for cleaning runs and
// the dashboard.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/David-Botos/form-ingress/pkg/model"
)

const namespace = "formclean"

// TextfileName is the file a batch run leaves for the node-exporter textfile collector
const TextfileName = "formclean.prom"

// Metrics holds the collectors of one process on a private registry
type Metrics struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	stageRows       *prometheus.GaugeVec
	cleaningOps     *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cache           *prometheus.CounterVec
	exports         *prometheus.CounterVec
}

// New creates the collectors and registers them with Go runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each cleaning stage",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		stageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_rows",
			Help:      "Rows produced by the last run of each stage",
		}, []string{"stage"}),
		cleaningOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleaning_operations_total",
			Help:      "Cell changes and parse fallbacks by operation",
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard requests by route and status",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_request_duration_seconds",
			Help:      "Dashboard request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "Loaded-table cache lookups by result",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "View exports by format and result",
		}, []string{"format", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stageDuration,
		m.stageRows,
		m.cleaningOps,
		m.requests,
		m.requestDuration,
		m.cache,
		m.exports,
	)
	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// ObserveStage records the duration and output size of a stage
func (m *Metrics) ObserveStage(stage string, duration time.Duration, rows int) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	m.stageRows.WithLabelValues(stage).Set(float64(rows))
}

// RecordOperations counts cleaning operations by kind
func (m *Metrics) RecordOperations(operations []model.CleaningOperation) {
	for _, op := range operations {
		m.cleaningOps.WithLabelValues(op.CleaningOperation).Inc()
	}
}

// ObserveRequest records one dashboard request
func (m *Metrics) ObserveRequest(route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// CacheLookup records a hit or a miss of the loaded-table cache
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// RecordExport records an export attempt
func (m *Metrics) RecordExport(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(format, result).Inc()
}
