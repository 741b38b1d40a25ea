package upload

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
		Timeout:    1 * time.Second,
	}
}

func TestBackoffDelay_Bounds(t *testing.T) {
	cfg := Config{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Timeout:    time.Second,
	}

	for attempt := 0; attempt <= 4; attempt++ {
		lower := cfg.BaseDelay
		for i := 0; i < attempt; i++ {
			lower *= 2
		}
		upper := time.Duration(float64(lower) * (1 + jitterFactor))

		// Jitter is random, so sample repeatedly.
		for i := 0; i < 50; i++ {
			got := BackoffDelay(attempt, cfg)
			if got < lower || got > upper {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, got, lower, upper)
			}
		}
	}
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		MaxRetries: 10,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    time.Second,
	}

	for i := 0; i < 20; i++ {
		if got := BackoffDelay(8, cfg); got > cfg.MaxDelay {
			t.Fatalf("delay %v exceeds cap %v", got, cfg.MaxDelay)
		}
	}
}

func TestWithRetry_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return nil
	}, nil)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetry_NonRetriableStopsImmediately(t *testing.T) {
	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: KindCORS, Message: "blocked", Retriable: false}
	}, nil)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
	// No backoff sleep may happen on the non-retriable path.
	if elapsed := time.Since(start); elapsed > fastConfig().BaseDelay {
		t.Errorf("non-retriable failure slept for %v", elapsed)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindCORS {
		t.Errorf("expected cors classification, got %v", err)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return &Error{Kind: KindServer, Message: "boom", Retriable: true, StatusCode: 500}
	}, nil)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// MaxRetries=2 means 3 total attempts.
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindServer {
		t.Errorf("expected last classified error, got %v", err)
	}
}

func TestWithRetry_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &Error{Kind: KindNetwork, Message: "flaky", Retriable: true}
		}
		return nil
	}, nil)

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_OnRetryHook(t *testing.T) {
	var attempts []int
	var delays []time.Duration

	_ = WithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		return &Error{Kind: KindServer, Message: "boom", Retriable: true}
	}, func(attempt int, err *Error, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	})

	// Two retries follow the initial attempt; the hook fires before each.
	if len(attempts) != 2 {
		t.Fatalf("expected 2 hook invocations, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
	for i, d := range delays {
		if d <= 0 {
			t.Errorf("delay %d not positive: %v", i, d)
		}
	}
}

func TestWithRetry_PerAttemptTimeout(t *testing.T) {
	cfg := Config{
		MaxRetries: 1,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   20 * time.Millisecond,
		Timeout:    20 * time.Millisecond,
	}

	calls := 0
	err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 2 {
		t.Errorf("expected both attempts to run, got %d", calls)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindTimeout {
		t.Errorf("expected timeout classification, got %v", err)
	}
}

func TestWithRetry_CallerCancelDuringBackoff(t *testing.T) {
	cfg := Config{
		MaxRetries: 5,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   time.Second,
		Timeout:    time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := WithRetry(ctx, cfg, func(ctx context.Context) error {
		calls++
		return &Error{Kind: KindServer, Message: "boom", Retriable: true}
	}, nil)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected cancellation during first backoff, got %d calls", calls)
	}

	var classified *Error
	if !errors.As(err, &classified) || classified.Kind != KindAborted {
		t.Errorf("expected aborted classification, got %v", err)
	}
}

func TestWithRetry_InvalidConfig(t *testing.T) {
	cfg := Config{MaxRetries: -1, BaseDelay: time.Second, MaxDelay: time.Second, Timeout: time.Second}
	err := WithRetry(context.Background(), cfg, func(ctx context.Context) error { return nil }, nil)
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default ok", DefaultConfig(), false},
		{"storage ok", StorageConfig(), false},
		{"email ok", EmailConfig(), false},
		{"negative retries", Config{MaxRetries: -1, BaseDelay: time.Second, MaxDelay: time.Second, Timeout: time.Second}, true},
		{"zero base delay", Config{MaxRetries: 1, BaseDelay: 0, MaxDelay: time.Second, Timeout: time.Second}, true},
		{"max below base", Config{MaxRetries: 1, BaseDelay: time.Second, MaxDelay: time.Millisecond, Timeout: time.Second}, true},
		{"zero timeout", Config{MaxRetries: 1, BaseDelay: time.Second, MaxDelay: time.Second, Timeout: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
