package shared

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors on a private registry.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	eventsPublished *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshSignals  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "events_published_total",
			Help:      "Events published on an entity hub.",
		}, []string{"entity", "kind"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "event_handler_failures_total",
			Help:      "Event handlers that returned an error or panicked.",
		}, []string{"entity", "kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "record_requests_total",
			Help:      "Record-store requests by operation and outcome.",
		}, []string{"entity", "operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Name:      "record_request_duration_seconds",
			Help:      "Record-store request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity", "operation"}),
		refreshSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "refresh_signals_total",
			Help:      "Form-closed signals by transport and outcome.",
		}, []string{"entity", "transport", "outcome"}),
	}

	m.registry.MustRegister(
		m.eventsPublished,
		m.handlerFailures,
		m.requests,
		m.requestDuration,
		m.refreshSignals,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventPublished(entity, kind string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(entity, kind).Inc()
}

func (m *Metrics) HandlerFailed(entity, kind string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(entity, kind).Inc()
}

// ObserveRequest records one record-store call. outcome is "ok" or the error kind.
func (m *Metrics) ObserveRequest(entity, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(entity, operation, outcome).Inc()
	m.requestDuration.WithLabelValues(entity, operation).Observe(elapsed.Seconds())
}

func (m *Metrics) RefreshSignal(entity, transport, outcome string) {
	if m == nil {
		return
	}
	m.refreshSignals.WithLabelValues(entity, transport, outcome).Inc()
}
