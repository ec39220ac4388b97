package telemetry

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborwatch/harborwatch/config"
)

// Telemetry tracks request and outbound-call metrics. A disabled
// instance keeps the same API but registers nothing.
type Telemetry struct {
	enabled  bool
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	outboundFailures *prometheus.CounterVec
}

func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{enabled: cfg.Enabled, registry: prometheus.NewRegistry()}
	ns := cfg.Namespace
	if ns == "" {
		ns = "harborwatch"
	}

	t.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "requests_total",
		Help:      "API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	t.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "request_duration_seconds",
		Help:      "API request latency by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	t.outboundFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "outbound_failures_total",
		Help:      "Failed outbound calls by collaborator.",
	}, []string{"collaborator"})

	if cfg.Enabled {
		t.registry.MustRegister(t.requestsTotal, t.requestDuration, t.outboundFailures)
	}
	return t
}

// NewEventID returns a correlation id for one processing event, used to
// tie together log lines for a single request.
func (t *Telemetry) NewEventID() string {
	return uuid.NewString()
}

// ObserveRequest records one completed API request.
func (t *Telemetry) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if t == nil || !t.enabled {
		return
	}
	t.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	t.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordOutboundFailure counts a failed call to an external collaborator.
func (t *Telemetry) RecordOutboundFailure(collaborator string) {
	if t == nil || !t.enabled {
		return
	}
	t.outboundFailures.WithLabelValues(collaborator).Inc()
}

// Handler exposes the metrics registry for the /metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
