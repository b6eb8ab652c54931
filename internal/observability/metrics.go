package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors shared by the client and the dev server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	refreshTotal    *prometheus.CounterVec
	fallbackTotal   *prometheus.CounterVec
	queuedTotal     *prometheus.CounterVec
	pendingActions  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidtrace_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aidtrace_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidtrace_errors_total",
				Help: "Errors by path, method and code.",
			},
			[]string{"method", "path", "code"},
		),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidtrace_client_token_refresh_total",
				Help: "Access token refresh attempts by result.",
			},
			[]string{"result"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidtrace_client_offline_fallback_total",
				Help: "Offline fallbacks served by operation.",
			},
			[]string{"operation"},
		),
		queuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aidtrace_client_actions_total",
				Help: "Offline actions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		pendingActions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aidtrace_client_pending_actions",
			Help: "Offline actions awaiting replay.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration, m.errorsTotal,
			m.refreshTotal, m.fallbackTotal, m.queuedTotal, m.pendingActions)
	}
	return m
}

// RecordRequest observes a completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordRefresh counts a refresh attempt; result is "success" or "failure".
func (m *Metrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// RecordFallback counts an offline fallback for an operation.
func (m *Metrics) RecordFallback(operation string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(operation).Inc()
}

// RecordAction counts an offline action transition (queued, synced, failed).
func (m *Metrics) RecordAction(kind, outcome string) {
	if m == nil {
		return
	}
	m.queuedTotal.WithLabelValues(kind, outcome).Inc()
}

// SetPending publishes the current pending action count.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingActions.Set(float64(n))
}
