// Package metrics exposes Prometheus instrumentation for the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors recorded by the HTTP middleware.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audiotheca_http_requests_total",
			Help: "Total HTTP requests processed, by service, method, route and status.",
		}, []string{"service", "method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audiotheca_http_request_duration_seconds",
			Help:    "HTTP request latency, by service, method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audiotheca_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.requestsInFlight)
	return m
}

// IncrementInFlight marks a request as started.
func (m *Metrics) IncrementInFlight() { m.requestsInFlight.Inc() }

// DecrementInFlight marks a request as finished.
func (m *Metrics) DecrementInFlight() { m.requestsInFlight.Dec() }

// RecordHTTPRequest records one completed request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration float64) {
	m.requestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(duration)
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
