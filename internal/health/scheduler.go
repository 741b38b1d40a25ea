package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	obs "github.com/Foodshareclub/foodshare-ops/internal/observability/metrics"
)

// ErrServiceNotFound is returned by management operations targeting a
// service with no stored record.
var ErrServiceNotFound = errors.New("service not found")

// Check cadence tiers, keyed by consecutive failures. A clearly-down service
// is probed on the long cadence rather than hammered continuously.
const (
	healthyInterval  = 30 * time.Minute
	degradedInterval = 5 * time.Minute
	brokenInterval   = 60 * time.Minute

	// brokenThreshold is the consecutive-failure count at which a service
	// moves to the long back-off cadence.
	brokenThreshold = 3

	// Off-peak window (UTC hours, inclusive) during which every interval is
	// doubled to cut probe cost.
	offPeakStartHour  = 2
	offPeakEndHour    = 8
	offPeakMultiplier = 2

	// costPerProbe is the estimated platform cost of one skipped probe,
	// accumulated into Metrics.CostSavings.
	costPerProbe = 0.0001
)

// Clock abstracts wall-clock time so the schedule can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// NextCheckInterval returns the base check interval for a service with the
// given consecutive-failure count: 30 minutes when healthy, 5 minutes under
// heightened vigilance, 60 minutes once the derived circuit is broken.
func NextCheckInterval(consecutiveFailures int) time.Duration {
	switch {
	case consecutiveFailures == 0:
		return healthyInterval
	case consecutiveFailures < brokenThreshold:
		return degradedInterval
	default:
		return brokenInterval
	}
}

// IsOffPeak reports whether t falls in the low-traffic window. Used purely
// as an interval multiplier, not a gate.
func IsOffPeak(t time.Time) bool {
	hour := t.UTC().Hour()
	return hour >= offPeakStartHour && hour <= offPeakEndHour
}

// ProbeResult is what a probe reports for a reachable service.
type ProbeResult struct {
	Status  Status
	Latency float64 // milliseconds
}

// ProbeFunc checks one service. A returned error means the service is down;
// the scheduler converts it into a down record rather than propagating it.
type ProbeFunc func(ctx context.Context) (ProbeResult, error)

// Scheduler decides when each service is probed and maintains the persisted
// records. There is no autonomous timer here: scheduling is emulated by
// comparing stored timestamps against the clock on every invocation.
//
// Records are read-modify-written without optimistic locking; concurrent
// invocations race last-write-wins, which is accepted for this low-frequency
// telemetry.
type Scheduler struct {
	store  Store
	clock  Clock
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger overrides the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  store,
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldCheck reports whether the named service is due for a probe: true on
// the first-ever check (no record) or once the stored next-check time has
// elapsed.
func (s *Scheduler) ShouldCheck(ctx context.Context, name string) (bool, error) {
	rec, found, err := s.store.GetService(ctx, name)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}

	now := s.clock.Now()
	if now.Before(rec.NextCheck) {
		s.logger.Debug("skipping health check, not yet due",
			slog.String("service", name),
			slog.Duration("remaining", rec.NextCheck.Sub(now)))
		return false, nil
	}
	return true, nil
}

// UpdateServiceHealth records the outcome of a probe: consecutive failures
// reset on a healthy status and increment otherwise, and the next check is
// scheduled at now + tier interval, doubled off-peak. The returned record is
// what was written.
func (s *Scheduler) UpdateServiceHealth(ctx context.Context, name string, status Status, latency float64, probeErr string) (ServiceHealth, error) {
	existing, _, err := s.store.GetService(ctx, name)
	if err != nil {
		// Proceed with a zeroed default so a flaky store read cannot block
		// recording a fresh observation.
		s.logger.Warn("reading existing health record failed",
			slog.String("service", name),
			slog.Any("error", err))
		existing = ServiceHealth{Name: name}
	}

	failures := 0
	if status != StatusHealthy {
		failures = existing.ConsecutiveFailures + 1
	}

	now := s.clock.Now()
	interval := NextCheckInterval(failures)
	if IsOffPeak(now) {
		interval *= offPeakMultiplier
	}

	rec := ServiceHealth{
		Name:                name,
		Status:              status,
		Latency:             latency,
		ConsecutiveFailures: failures,
		LastCheck:           now,
		NextCheck:           now.Add(interval),
		Error:               probeErr,
	}

	if err := s.store.PutService(ctx, rec); err != nil {
		return rec, err
	}

	obs.SetCircuitBrokenSchedule(name, rec.CircuitBroken())
	return rec, nil
}

// CheckService runs one scheduled check. When the service is not yet due it
// returns the cached record without invoking the probe (or a synthesized
// degraded record if none exists) and credits the skipped probe to the
// cost-savings estimate. Probe failures and panics are converted into a
// persisted down record; this method never propagates a probe error.
func (s *Scheduler) CheckService(ctx context.Context, name string, probe ProbeFunc) ServiceHealth {
	due, err := s.ShouldCheck(ctx, name)
	if err != nil {
		// The store is unreachable; fail open and probe anyway so an outage
		// of the store cannot hide an outage of the service.
		s.logger.Warn("schedule lookup failed, probing anyway",
			slog.String("service", name),
			slog.Any("error", err))
		due = true
	}

	if !due {
		s.recordSkip(ctx, name)
		if rec, found, err := s.store.GetService(ctx, name); err == nil && found {
			return rec
		}
		return ServiceHealth{Name: name, Status: StatusDegraded, Error: "check skipped"}
	}

	result, probeErr := s.runProbe(ctx, probe)

	status := result.Status
	latency := result.Latency
	errMsg := ""
	if probeErr != nil {
		status = StatusDown
		latency = 0
		errMsg = probeErr.Error()
	}

	rec, err := s.UpdateServiceHealth(ctx, name, status, latency, errMsg)
	if err != nil {
		s.logger.Error("persisting health record failed",
			slog.String("service", name),
			slog.Any("error", err))
	}

	s.recordObservation(ctx, status, latency)
	obs.RecordProbe(name, string(status), latency)
	return rec
}

// runProbe invokes the probe with panic containment. A monitoring path must
// never crash the process it monitors.
func (s *Scheduler) runProbe(ctx context.Context, probe ProbeFunc) (result ProbeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("probe panicked", slog.Any("panic", r))
			result = ProbeResult{}
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return probe(ctx)
}

// recordSkip credits one avoided probe to the cumulative cost estimate.
// Best-effort: a store failure here is logged and dropped.
func (s *Scheduler) recordSkip(ctx context.Context, name string) {
	obs.RecordSkippedCheck(name)

	m, err := s.store.GetMetrics(ctx)
	if err != nil {
		s.logger.Debug("reading metrics failed", slog.Any("error", err))
		return
	}
	m.CostSavings += costPerProbe
	if err := s.store.PutMetrics(ctx, m); err != nil {
		s.logger.Debug("writing metrics failed", slog.Any("error", err))
	}
}

// recordObservation folds one probe outcome into the cumulative metrics.
// SuccessRate and AvgLatency are recomputed incrementally from actual
// observations.
func (s *Scheduler) recordObservation(ctx context.Context, status Status, latency float64) {
	m, err := s.store.GetMetrics(ctx)
	if err != nil {
		s.logger.Debug("reading metrics failed", slog.Any("error", err))
		return
	}

	m.TotalChecks++
	n := float64(m.TotalChecks)

	success := 0.0
	if status == StatusHealthy {
		success = 100.0
	}
	m.SuccessRate += (success - m.SuccessRate) / n
	m.AvgLatency += (latency - m.AvgLatency) / n

	if err := s.store.PutMetrics(ctx, m); err != nil {
		s.logger.Debug("writing metrics failed", slog.Any("error", err))
	}
}

// ForceCheck rewrites the service's next-check time to now so the next probe
// cycle runs it immediately, regardless of the back-off tier.
func (s *Scheduler) ForceCheck(ctx context.Context, name string) error {
	rec, found, err := s.store.GetService(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	rec.NextCheck = s.clock.Now()
	return s.store.PutService(ctx, rec)
}

// ResetService zeroes the service's consecutive failures, closing its
// derived circuit, and forces an immediate re-check.
func (s *Scheduler) ResetService(ctx context.Context, name string) error {
	rec, found, err := s.store.GetService(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	rec.ConsecutiveFailures = 0
	rec.NextCheck = s.clock.Now()
	obs.SetCircuitBrokenSchedule(name, false)
	return s.store.PutService(ctx, rec)
}

// ResetMetrics zeroes the cumulative metrics record.
func (s *Scheduler) ResetMetrics(ctx context.Context) error {
	return s.store.PutMetrics(ctx, Metrics{})
}

// Store exposes the underlying store for read-only surfaces.
func (s *Scheduler) Store() Store { return s.store }

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }
