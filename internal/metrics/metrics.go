package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "statetable"

// Cycle and save outcomes used as label values.
const (
	ResultSuccess   = "success"
	ResultPartial   = "partial"
	ResultNetwork   = "network_error"
	ResultMalformed = "malformed"
	ResultSkipped   = "skipped"
	ResultError     = "error"
	ResultAccepted  = "accepted"
	ResultLimited   = "limited"
)

// Metrics collects and exposes service metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests   prometheus.Counter
	apiErrors     *prometheus.CounterVec
	apiLatency    prometheus.Histogram
	payloadBytes  prometheus.Gauge
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	tableRows     prometheus.Gauge
	snapshotSaves *prometheus.CounterVec
	triggers      *prometheus.CounterVec
	streamClients prometheus.Gauge
	httpRequests  *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),

		apiRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total requests sent to the OpenSky API",
		}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total failed OpenSky API requests by reason",
		}, []string{"reason"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_latency_seconds",
			Help:      "OpenSky API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		payloadBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payload_bytes",
			Help:      "Size of the last fetched payload",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cycles_total",
			Help:      "Total ingestion cycles by result",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Ingestion cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		tableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows currently displayed",
		}),
		snapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Total snapshot saves by result",
		}, []string{"result"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_triggers_total",
			Help:      "Total manual refresh triggers by result",
		}, []string{"result"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected WebSocket clients",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status class",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiErrors,
		m.apiLatency,
		m.payloadBytes,
		m.cycles,
		m.cycleDuration,
		m.tableRows,
		m.snapshotSaves,
		m.triggers,
		m.streamClients,
		m.httpRequests,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// API metrics

func (m *Metrics) IncrementAPIRequests() {
	m.apiRequests.Inc()
}

func (m *Metrics) IncrementAPIErrors(reason string) {
	m.apiErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordAPILatency(d time.Duration) {
	m.apiLatency.Observe(d.Seconds())
}

func (m *Metrics) SetPayloadBytes(n int) {
	m.payloadBytes.Set(float64(n))
}

// Ingestion metrics

func (m *Metrics) RecordCycle(result string, d time.Duration) {
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetTableRows(n int) {
	m.tableRows.Set(float64(n))
}

func (m *Metrics) RecordSnapshotSave(result string) {
	m.snapshotSaves.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTrigger(result string) {
	m.triggers.WithLabelValues(result).Inc()
}

// Surface metrics

func (m *Metrics) SetStreamClients(n int) {
	m.streamClients.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(route string, status int) {
	m.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// GetUptime returns time since the collector was created.
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
