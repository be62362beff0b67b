// Package metrics instruments protocol dispatch and tool execution with
// Prometheus counters and histograms, shaped after internal/mcp/metrics.go's
// invocations/duration/errors/active-requests quartet, translated from
// otel's Meter API onto github.com/prometheus/client_golang since the
// full OpenTelemetry exporter pipeline is out of scope for an embeddable
// library (see DESIGN.md, dropped dependencies).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/histogram/gauge the protocol engine and
// session store (including its outboxes) report against. A nil *Metrics
// is valid and every method is a no-op, so instrumentation is opt-in for
// embedders who don't register a Prometheus registry.
type Metrics struct {
	requests       *prometheus.CounterVec
	requestErrors  *prometheus.CounterVec
	toolInvocations *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	notifications  *prometheus.CounterVec
}

// New creates and registers the full metric set against reg. Passing
// prometheus.NewRegistry() keeps metrics isolated per embedded server
// instance; passing prometheus.DefaultRegisterer matches typical
// single-process usage.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpserver_requests_total",
			Help: "Total number of JSON-RPC requests dispatched, by method.",
		}, []string{"method"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpserver_request_errors_total",
			Help: "Total number of JSON-RPC error responses, by method and error code.",
		}, []string{"method", "code"}),
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpserver_tool_invocations_total",
			Help: "Total number of tools/call invocations, by tool name.",
		}, []string{"tool"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcpserver_tool_duration_seconds",
			Help:    "Duration of tool invocations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"tool"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcpserver_active_sessions",
			Help: "Number of sessions currently tracked by the session store.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcpserver_notifications_sent_total",
			Help: "Total number of server-initiated notifications pushed to outboxes, by method.",
		}, []string{"method"}),
	}
	reg.MustRegister(m.requests, m.requestErrors, m.toolInvocations, m.toolDuration, m.activeSessions, m.notifications)
	return m
}

// RecordRequest records a dispatched method call and, if code is nonzero,
// the error code it returned.
func (m *Metrics) RecordRequest(method string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
	if code != 0 {
		m.requestErrors.WithLabelValues(method, errCodeLabel(code)).Inc()
	}
}

// RecordToolInvocation records one tools/call execution and its duration.
func (m *Metrics) RecordToolInvocation(tool string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// SetActiveSessions reports the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// RecordNotification records one outbound notification push.
func (m *Metrics) RecordNotification(method string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(method).Inc()
}

func errCodeLabel(code int) string {
	switch code {
	case -32700:
		return "parse_error"
	case -32600:
		return "invalid_request"
	case -32601:
		return "method_not_found"
	case -32602:
		return "invalid_params"
	case -32603:
		return "internal_error"
	case -32002:
		return "not_initialized"
	default:
		return "unknown"
	}
}
