package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks probe-cycle execution in the worker.
type Metrics struct {
	// CycleRunsTotal counts probe cycles by status (success/failure).
	CycleRunsTotal *prometheus.CounterVec

	// CycleDurationSeconds measures probe-cycle duration.
	CycleDurationSeconds prometheus.Histogram

	// LastSuccessTimestamp is the Unix time of the last successful cycle.
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates and registers the worker metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_probe_cycle_runs_total",
			Help: "Total number of probe cycles by status (success/failure)",
		}, []string{"status"}),

		CycleDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_probe_cycle_duration_seconds",
			Help:    "Duration of probe cycle execution",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60},
		}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_probe_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful probe cycle",
		}),
	}
}

// RecordCycle records one completed probe cycle.
func (m *Metrics) RecordCycle(status string, duration time.Duration) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
	m.CycleDurationSeconds.Observe(duration.Seconds())
	if status == "success" {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}
