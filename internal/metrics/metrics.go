package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	registry        *prometheus.Registry
	sessionsCreated *prometheus.CounterVec
	statusUpdates   *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	orderEvents     prometheus.Counter
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workcity_chat",
			Name:      "sessions_created_total",
			Help:      "Chat sessions created, by context type.",
		}, []string{"context_type"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workcity_chat",
			Name:      "session_status_updates_total",
			Help:      "Session status transitions, by target status.",
		}, []string{"status"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workcity_chat",
			Name:      "session_store_errors_total",
			Help:      "Session store failures, by operation.",
		}, []string{"op"}),
		orderEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workcity_chat",
			Name:      "order_status_events_total",
			Help:      "Order status change events published.",
		}),
	}

	reg.MustRegister(
		m.sessionsCreated,
		m.statusUpdates,
		m.storeErrors,
		m.orderEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionCreated(contextType string) {
	if m == nil {
		return
	}
	if contextType == "" {
		contextType = "none"
	}
	m.sessionsCreated.WithLabelValues(contextType).Inc()
}

func (m *Metrics) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) OrderEvent() {
	if m == nil {
		return
	}
	m.orderEvents.Inc()
}
