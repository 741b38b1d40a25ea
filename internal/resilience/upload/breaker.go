package upload

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// breakerFailureThreshold is the consecutive-failure count that opens
	// the breaker.
	breakerFailureThreshold = 3

	// breakerResetWindow is how long the breaker stays open after the last
	// recorded failure before it auto-closes.
	breakerResetWindow = 60 * time.Second
)

// Clock abstracts time for the breaker so tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock used in production.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Breaker is a consecutive-failure circuit breaker for a single external
// dependency. State is process-local: it is not persisted and does not
// coordinate across instances, which is acceptable for best-effort cost
// control but not for safety properties.
type Breaker struct {
	mu          sync.Mutex
	name        string
	failures    int
	lastFailure time.Time
	open        bool
	clock       Clock
}

// NewBreaker creates a closed breaker for the named dependency. A nil clock
// defaults to the system clock.
func NewBreaker(name string, clock Clock) *Breaker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Breaker{name: name, clock: clock}
}

// R2 guards calls to the Cloudflare R2 object-storage provider. Upload call
// sites consult it before starting a transfer.
var R2 = NewBreaker("r2-storage", nil)

// IsOpen reports whether calls should be skipped. An open breaker
// auto-closes once the reset window has elapsed since the last failure,
// zeroing the failure count.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open && b.clock.Now().Sub(b.lastFailure) > breakerResetWindow {
		slog.Info("circuit breaker reset after cool-down",
			slog.String("dependency", b.name))
		b.open = false
		b.failures = 0
	}
	return b.open
}

// RecordFailure notes a failed call. Reaching the threshold flips the
// breaker open.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.clock.Now()
	if b.failures >= breakerFailureThreshold && !b.open {
		b.open = true
		slog.Warn("circuit breaker opened",
			slog.String("dependency", b.name),
			slog.Int("failures", b.failures))
	}
}

// RecordSuccess zeroes the failure count. It does not touch the open flag;
// only the time-based check in IsOpen closes an open breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Reset unconditionally returns the breaker to its initial state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.lastFailure = time.Time{}
	b.open = false
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
