package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	AuthEvents         *prometheus.CounterVec
	SessionsIssued     prometheus.Counter
	ResourcesSubmitted prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerohunger",
			Name:      "auth_events_total",
			Help:      "Authentication operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zerohunger",
			Name:      "sessions_issued_total",
			Help:      "Sessions created by login, registration or SSO.",
		}),
		ResourcesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zerohunger",
			Name:      "resources_submitted_total",
			Help:      "Food resource listings stored.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerohunger",
			Name:      "http_requests_total",
			Help:      "HTTP responses by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthEvents,
		m.SessionsIssued,
		m.ResourcesSubmitted,
		m.HTTPRequests,
	)
	return m
}

// Auth records one authentication outcome.
func (m *Metrics) Auth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(operation, outcome).Inc()
}

// SessionIssued counts a newly issued session.
func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

// ResourceSubmitted counts a stored resource listing.
func (m *Metrics) ResourceSubmitted() {
	if m == nil {
		return
	}
	m.ResourcesSubmitted.Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }
