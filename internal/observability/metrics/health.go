package metrics

// RecordProbe records one executed probe: its outcome and latency.
// latencyMs is in milliseconds, matching the persisted record.
func RecordProbe(service, status string, latencyMs float64) {
	ProbesTotal.WithLabelValues(service, status).Inc()
	ProbeLatency.WithLabelValues(service).Observe(latencyMs / 1000)
}

// RecordSkippedCheck records a probe avoided by the adaptive schedule.
func RecordSkippedCheck(service string) {
	SkippedChecksTotal.WithLabelValues(service).Inc()
}

// SetCircuitBrokenSchedule flags whether the service is currently on the
// circuit-broken cadence.
func SetCircuitBrokenSchedule(service string, broken bool) {
	v := 0.0
	if broken {
		v = 1.0
	}
	CircuitBrokenSchedule.WithLabelValues(service).Set(v)
}
