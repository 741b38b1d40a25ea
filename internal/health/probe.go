package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Foodshareclub/foodshare-ops/internal/resilience/circuitbreaker"
)

// Latency above this marks an otherwise-successful probe as degraded.
const degradedLatencyMs = 500

// Target pairs a monitored service name with its probe.
type Target struct {
	Name  string
	Probe ProbeFunc
}

// StorePingProbe probes the health store's own connectivity. This is the
// exemplar target: the store that holds the records is itself monitored.
func StorePingProbe(store Store) ProbeFunc {
	return func(ctx context.Context) (ProbeResult, error) {
		start := time.Now()
		if err := store.Ping(ctx); err != nil {
			return ProbeResult{}, fmt.Errorf("store ping: %w", err)
		}
		latency := float64(time.Since(start).Microseconds()) / 1000

		status := StatusHealthy
		if latency > degradedLatencyMs {
			status = StatusDegraded
		}
		return ProbeResult{Status: status, Latency: latency}, nil
	}
}

// HTTPProbe probes an HTTP endpoint with a GET request, guarded by a
// per-target circuit breaker. Any transport error or non-2xx status counts
// as down.
func HTTPProbe(client *http.Client, name, url string) ProbeFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := circuitbreaker.New(circuitbreaker.HTTPProbeConfig(name))

	return func(ctx context.Context) (ProbeResult, error) {
		start := time.Now()
		_, err := breaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil, nil
		})
		if err != nil {
			return ProbeResult{}, fmt.Errorf("probe %s: %w", name, err)
		}

		latency := float64(time.Since(start).Microseconds()) / 1000
		status := StatusHealthy
		if latency > degradedLatencyMs {
			status = StatusDegraded
		}
		return ProbeResult{Status: status, Latency: latency}, nil
	}
}

// Prober runs one check cycle over a fixed set of targets.
type Prober struct {
	sched   *Scheduler
	targets []Target
}

// NewProber creates a prober for the given targets.
func NewProber(sched *Scheduler, targets []Target) *Prober {
	return &Prober{sched: sched, targets: targets}
}

// Scheduler returns the prober's scheduler.
func (p *Prober) Scheduler() *Scheduler { return p.sched }

// Run executes one cycle: every target is checked (or skipped by the
// schedule) concurrently. It returns the per-service records in target
// order and the cycle's total wall-clock duration in milliseconds. Probe
// failures surface only as down records, never as errors.
func (p *Prober) Run(ctx context.Context) ([]ServiceHealth, float64) {
	start := time.Now()
	records := make([]ServiceHealth, len(p.targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range p.targets {
		i, target := i, target
		g.Go(func() error {
			// Each goroutine writes a distinct slice element.
			records[i] = p.sched.CheckService(gctx, target.Name, target.Probe)
			return nil
		})
	}
	// Goroutines never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	return records, float64(time.Since(start).Microseconds()) / 1000
}

// Overall reduces per-service records to a cycle verdict: down if any
// service is down, degraded if any is degraded, healthy otherwise.
func Overall(records []ServiceHealth) Status {
	status := StatusHealthy
	for _, rec := range records {
		switch rec.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
