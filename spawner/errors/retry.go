package errors

import (
	"context"
	"math"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RetryableErrors []ErrorCode
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		RetryableErrors: []ErrorCode{
			ErrCodeNetwork,
			ErrCodeRPC,
		},
	}
}

// RetryFunc is a function that can be retried
type RetryFunc func() error

// RetryWithConfig retries a function with custom configuration
func RetryWithConfig(ctx context.Context, fn RetryFunc, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err, config.RetryableErrors) {
			return err
		}

		// Don't retry on last attempt
		if attempt == config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ExponentialBackoff(attempt, config.InitialDelay, config.MaxDelay, config.Multiplier)):
		}
	}

	return Wrapf(lastErr, "maximum retry attempts (%d) exceeded", config.MaxAttempts)
}

func isRetryableError(err error, retryableCodes []ErrorCode) bool {
	var spawnErr *SpawnError
	if As(err, &spawnErr) {
		for _, code := range retryableCodes {
			if spawnErr.Code == code {
				return true
			}
		}
		return spawnErr.IsRetryable()
	}
	return IsRetryable(err)
}

// ExponentialBackoff returns the delay after the given attempt:
// baseDelay * multiplier^(attempt-1), capped at maxDelay. A multiplier
// below 1 keeps the delay constant.
func ExponentialBackoff(attempt int, baseDelay, maxDelay time.Duration, multiplier float64) time.Duration {
	if attempt <= 1 || multiplier < 1 {
		return min(baseDelay, maxDelay)
	}

	delay := float64(baseDelay) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delay)
}
