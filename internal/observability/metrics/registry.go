// Package metrics provides centralized Prometheus metrics for the ops
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track request patterns on the API surface.
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Probe metrics track the adaptive health-check scheduler.
var (
	// ProbesTotal counts executed probes by service and resulting status.
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_probes_total",
			Help: "Total number of executed health probes",
		},
		[]string{"service", "status"},
	)

	// ProbeLatency measures probe latency in seconds.
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_probe_latency_seconds",
			Help:    "Health probe latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service"},
	)

	// SkippedChecksTotal counts probes skipped by the adaptive schedule.
	SkippedChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_checks_skipped_total",
			Help: "Health checks skipped because the next-check time had not elapsed",
		},
		[]string{"service"},
	)

	// CircuitBrokenSchedule reports whether a service is on the long
	// back-off cadence (1) or not (0).
	CircuitBrokenSchedule = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "health_circuit_broken",
			Help: "Whether the service has reached the circuit-broken scheduling tier",
		},
		[]string{"service"},
	)
)
