// Package metrics holds the Prometheus collectors exported by the stub server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mimic"

// Outcome labels shared by the operation counters.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
)

// Metrics contains every collector of the server.
type Metrics struct {
	// ServicesRegistered tracks the registry size.
	ServicesRegistered prometheus.Gauge

	// Operations counts admin operations by operation and outcome.
	Operations *prometheus.CounterVec

	// Invocations counts invoke attempts by outcome (matched/unmatched).
	Invocations *prometheus.CounterVec

	// RequestDuration observes HTTP handling time by request kind.
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		ServicesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "services",
			Help:      "Number of virtual services currently registered",
		}),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admin",
				Name:      "operations_total",
				Help:      "Total number of registry operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "invocations_total",
				Help:      "Total number of invoke requests by outcome",
			},
			[]string{"outcome"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request handling time by request kind",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.ServicesRegistered,
		m.Operations,
		m.Invocations,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
