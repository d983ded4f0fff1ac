package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"compass/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Maximum number of retry attempts (default: 3)
	BaseDelay    time.Duration // Base delay for exponential backoff (default: 1s)
	MaxDelay     time.Duration // Maximum delay between retries (default: 30s)
	JitterFactor float64       // Jitter factor for randomization (default: 0.25 = ±25%)

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.25,
	}
}

// Do executes a function with exponential backoff retry logic
func Do(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	_, err := WithResult(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// WithResult executes a function that returns a result with retry logic
func WithResult[T any](ctx context.Context, config Config, fn func(ctx context.Context) (T, error)) (T, error) {
	return WithResultAndLog(ctx, config, fn, nil)
}

// WithResultAndLog executes a function that returns a result with retry logic and custom logger
func WithResultAndLog[T any](ctx context.Context, config Config, fn func(ctx context.Context) (T, error), logger logging.Logger) (T, error) {
	logger = logging.OrNop(logger)

	var lastErr error
	var zeroValue T

	for attempt := 0; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zeroValue, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("retry succeeded after %d attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		logger.Debug("attempt %d failed: %v", attempt+1, err)

		if config.Retryable != nil && !config.Retryable(err) {
			return zeroValue, err
		}

		// Don't sleep after last attempt
		if attempt == config.MaxAttempts {
			logger.Warn("max retries (%d) exhausted", config.MaxAttempts+1)
			break
		}

		delay := backoff(attempt, config)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zeroValue, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	return zeroValue, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoff calculates exponential backoff with jitter
func backoff(attempt int, config Config) time.Duration {
	base := config.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	maxDelay := config.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > maxDelay {
		delay = maxDelay
	}

	if config.JitterFactor > 0 {
		jitter := float64(delay) * config.JitterFactor
		delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
		if delay < 0 {
			delay = base
		}
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return delay
}
