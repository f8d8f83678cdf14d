package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithState tags err with the state it surfaced in. A SpawnError keeps its code
// and only gains the state if it had none; any other error becomes INTERNAL.
func WithState(err error, state string) error {
	if err == nil {
		return nil
	}

	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		if spawnErr.State == "" {
			spawnErr.State = state
		}
		return err
	}
	return NewSpawnError(ErrCodeInternal, state, "operation failed", err)
}

// Is checks if an error is of a specific type
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As checks if an error can be assigned to a target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsSpawnError checks if an error is a SpawnError with specific code
func IsSpawnError(err error, code ErrorCode) bool {
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.Code == code
	}
	return false
}

// StateOf returns the state recorded on the first SpawnError in the chain.
func StateOf(err error) string {
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.State
	}
	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"too many requests",
		"rate limit",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
