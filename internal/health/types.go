// Package health implements the adaptive health-check scheduler: per-service
// check records persisted in Redis, a failure-tiered check cadence with an
// off-peak multiplier, and a probe runner that skips checks whose next-check
// time has not yet elapsed.
package health

import "time"

// Status is the health verdict for a monitored service.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// ServiceHealth is the persisted per-service check record. It is created on
// the first check and read-modify-written on every subsequent one; this code
// path never deletes it.
type ServiceHealth struct {
	Name                string    `json:"name"`
	Status              Status    `json:"status"`
	Latency             float64   `json:"latency"` // milliseconds
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastCheck           time.Time `json:"lastCheck"`
	NextCheck           time.Time `json:"nextCheck"`
	Error               string    `json:"error,omitempty"`
}

// CircuitBroken reports whether the service has reached the failure tier
// that slows checking down to the long back-off cadence.
func (s ServiceHealth) CircuitBroken() bool {
	return s.ConsecutiveFailures >= brokenThreshold
}

// Metrics is the singleton cumulative record stored alongside the service
// records. SuccessRate is a percentage in [0,100]; AvgLatency is in
// milliseconds; CostSavings is an accumulated currency estimate of probes
// skipped by the adaptive schedule.
type Metrics struct {
	TotalChecks int64   `json:"totalChecks"`
	SuccessRate float64 `json:"successRate"`
	AvgLatency  float64 `json:"avgLatency"`
	CostSavings float64 `json:"costSavings"`
}
