// Package upload provides the resilient executor used for outbound uploads
// and other one-shot HTTP calls: failure classification, bounded retries with
// exponential backoff and jitter, a per-attempt timeout, and a small circuit
// breaker for the object-storage dependency.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// jitterFactor is the upper bound of the multiplicative jitter applied to
// each backoff delay. Jitter avoids synchronized retry storms across
// concurrent callers.
const jitterFactor = 0.25

// Config holds the retry configuration for a single operation.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the backoff delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Timeout is the deadline applied to each individual attempt.
	Timeout time.Duration
}

// DefaultConfig returns the retry configuration used when a caller supplies
// none.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// StorageConfig returns configuration tuned for object-storage uploads.
// Uploads carry larger payloads, so each attempt gets a longer deadline.
func StorageConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    60 * time.Second,
	}
}

// EmailConfig returns configuration tuned for email-provider calls.
// Failover to a secondary provider happens at the caller, so retries here
// stay short.
func EmailConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Timeout:    15 * time.Second,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %v", c.BaseDelay)
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("max delay %v is below base delay %v", c.MaxDelay, c.BaseDelay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// BackoffDelay computes the sleep before retry number attempt (0-based, so
// the delay grows only after the first failure):
//
//	min(BaseDelay × 2^attempt × (1 + uniform(0, 0.25)), MaxDelay)
func BackoffDelay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= 2
	}

	// #nosec G404 -- math/rand is fine for backoff jitter; this is not a
	// cryptographic use.
	delay *= 1 + rand.Float64()*jitterFactor

	if capped := float64(cfg.MaxDelay); delay > capped {
		delay = capped
	}
	return time.Duration(delay)
}

// OnRetry is an optional side-effect hook invoked before each backoff sleep,
// typically for telemetry. attempt is 1-based retry numbering.
type OnRetry func(attempt int, err *Error, delay time.Duration)

// WithRetry executes fn with bounded retries. It runs up to MaxRetries+1
// total attempts, each under a fresh deadline of cfg.Timeout. Failures are
// classified; a non-retriable classification aborts immediately with no
// further attempts and no sleep. When attempts are exhausted the last
// classified error is returned.
//
// fn may return an *Error directly (for example from Classify with an HTTP
// response) to control the retriability verdict; any other error is
// classified without a response.
//
// The backoff sleep honors ctx, so callers can abandon a retry sequence
// between attempts. There is no way to interrupt an attempt already in
// flight other than its own deadline.
func WithRetry(ctx context.Context, cfg Config, fn func(ctx context.Context) error, onRetry OnRetry) error {
	if err := cfg.Validate(); err != nil {
		return &Error{Kind: KindUnknown, Message: err.Error(), Retriable: false, Cause: err}
	}

	var lastErr *Error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt+1))
			}
			return nil
		}

		lastErr = Classify(err, nil)

		if !lastErr.Retriable {
			slog.Warn("non-retriable failure, aborting",
				slog.String("kind", string(lastErr.Kind)),
				slog.Int("attempt", attempt+1),
				slog.Any("error", lastErr))
			return lastErr
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := BackoffDelay(attempt, cfg)
		if onRetry != nil {
			onRetry(attempt+1, lastErr, delay)
		}

		slog.Warn("operation failed, retrying",
			slog.String("kind", string(lastErr.Kind)),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", cfg.MaxRetries+1),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Classify(ctx.Err(), nil)
		}
	}

	return lastErr
}
