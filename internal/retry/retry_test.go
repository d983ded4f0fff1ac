package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still broken")
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", attempts)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	config := fastConfig()
	config.Retryable = func(error) bool { return false }
	attempts := 0
	err := Do(context.Background(), config, func(ctx context.Context) error {
		attempts++
		return errors.New("fatal")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestWithResult_ReturnsValue(t *testing.T) {
	got, err := WithResult(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, fastConfig(), func(ctx context.Context) error {
		return errors.New("never reached after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	config := Config{BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
	if d := backoff(0, config); d != time.Millisecond {
		t.Fatalf("attempt 0: expected 1ms, got %v", d)
	}
	if d := backoff(1, config); d != 2*time.Millisecond {
		t.Fatalf("attempt 1: expected 2ms, got %v", d)
	}
	if d := backoff(10, config); d != 4*time.Millisecond {
		t.Fatalf("attempt 10: expected cap at 4ms, got %v", d)
	}
}
