package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fulfillment outcomes recorded by the webhook handler.
const (
	OutcomeSuccess        = "success"
	OutcomeFallback       = "fallback"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeMissingQuery   = "missing_query"
)

// Metrics encapsulates Prometheus metrics for the server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ActiveRequests     *prometheus.GaugeVec
	ErrorsTotal        *prometheus.CounterVec
	FulfillmentsTotal  *prometheus.CounterVec
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	BreakerState       prometheus.Gauge
	BreakerTripsTotal  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with a custom registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callbridge_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callbridge_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		ActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "callbridge_http_active_requests",
				Help: "Number of currently active HTTP requests",
			},
			[]string{"endpoint"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callbridge_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type"},
		),
		FulfillmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callbridge_fulfillments_total",
				Help: "Webhook calls by outcome (success, fallback, invalid_request, missing_query)",
			},
			[]string{"outcome"},
		),
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callbridge_generations_total",
				Help: "Generative backend calls by provider and result reason",
			},
			[]string{"provider", "reason"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callbridge_generation_duration_seconds",
				Help:    "Latency of generative backend calls",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
		),
		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "callbridge_circuit_breaker_state",
				Help: "Current state of the backend circuit breaker (0=closed, 1=half-open, 2=open)",
			},
		),
		BreakerTripsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "callbridge_circuit_breaker_trips_total",
				Help: "Number of times the backend circuit breaker opened",
			},
		),
	}

	// Register default Go metrics
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	for _, outcome := range []string{OutcomeSuccess, OutcomeFallback, OutcomeInvalidRequest, OutcomeMissingQuery} {
		m.FulfillmentsTotal.WithLabelValues(outcome).Add(0)
	}

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns a handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})
}

// RecordFulfillment counts one webhook call by outcome.
func (m *Metrics) RecordFulfillment(outcome string) {
	if m == nil {
		return
	}
	m.FulfillmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordGeneration counts one backend call. reason is "ok" on success.
func (m *Metrics) RecordGeneration(provider, reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(provider, reason).Inc()
	m.GenerationDuration.Observe(d.Seconds())
}

// SetBreakerState records the breaker state as a number.
func (m *Metrics) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.BreakerState.Set(state)
}

// RecordBreakerTrip counts one transition into the open state.
func (m *Metrics) RecordBreakerTrip() {
	if m == nil {
		return
	}
	m.BreakerTripsTotal.Inc()
}
