package errors

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		Multiplier:      2.0,
		RetryableErrors: []ErrorCode{ErrCodeNetwork},
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 1*time.Second, config.InitialDelay)
	assert.Equal(t, 30*time.Second, config.MaxDelay)
	assert.Equal(t, 2.0, config.Multiplier)
	assert.Contains(t, config.RetryableErrors, ErrCodeNetwork)
	assert.Contains(t, config.RetryableErrors, ErrCodeRPC)
	assert.NotContains(t, config.RetryableErrors, ErrCodeTimeout)
}

func TestRetryWithConfig_Success(t *testing.T) {
	tests := []struct {
		name              string
		attemptsToSucceed int
	}{
		{name: "succeeds on first attempt", attemptsToSucceed: 1},
		{name: "succeeds on second attempt", attemptsToSucceed: 2},
		{name: "succeeds on last attempt", attemptsToSucceed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			err := RetryWithConfig(context.Background(), func() error {
				if atomic.AddInt32(&calls, 1) < int32(tt.attemptsToSucceed) {
					return NewNetworkError("connection dropped", nil)
				}
				return nil
			}, fastRetryConfig(3))

			require.NoError(t, err)
			assert.Equal(t, int32(tt.attemptsToSucceed), atomic.LoadInt32(&calls))
		})
	}
}

func TestRetryWithConfig_NonRetryableError(t *testing.T) {
	var calls int32
	provErr := NewProvisioningError("request rejected", nil)

	err := RetryWithConfig(context.Background(), func() error {
		atomic.AddInt32(&calls, 1)
		return provErr
	}, fastRetryConfig(3))

	require.Error(t, err)
	assert.Equal(t, provErr, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryWithConfig_MaxAttemptsExceeded(t *testing.T) {
	var calls int32
	err := RetryWithConfig(context.Background(), func() error {
		atomic.AddInt32(&calls, 1)
		return NewNetworkError("connection refused", nil)
	}, fastRetryConfig(3))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retry attempts (3) exceeded")
	assert.True(t, IsSpawnError(err, ErrCodeNetwork))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryWithConfig_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetryConfig(5)
	cfg.InitialDelay = time.Second

	var calls int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := RetryWithConfig(ctx, func() error {
		atomic.AddInt32(&calls, 1)
		return NewNetworkError("connection refused", nil)
	}, cfg)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryWithConfig_PlainErrorPatterns(t *testing.T) {
	var calls int32
	err := RetryWithConfig(context.Background(), func() error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("dial tcp: Connection Refused")
		}
		return nil
	}, fastRetryConfig(2))

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	assert.Equal(t, base, ExponentialBackoff(0, base, max, 2))
	assert.Equal(t, base, ExponentialBackoff(1, base, max, 2))
	assert.Equal(t, 400*time.Millisecond, ExponentialBackoff(3, base, max, 2))
	assert.Equal(t, 900*time.Millisecond, ExponentialBackoff(3, base, max, 3))
	assert.Equal(t, max, ExponentialBackoff(10, base, max, 2))
	assert.Equal(t, base, ExponentialBackoff(5, base, max, 0))
	assert.Equal(t, max, ExponentialBackoff(1, 2*time.Second, max, 2))
}

func TestRetryWithConfig_BacksOffBetweenAttempts(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    20 * time.Millisecond,
		MaxDelay:        time.Second,
		Multiplier:      2.0,
		RetryableErrors: []ErrorCode{ErrCodeNetwork},
	}

	var stamps []time.Time
	err := RetryWithConfig(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return NewNetworkError("connection dropped", nil)
	}, config)

	require.Error(t, err)
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
