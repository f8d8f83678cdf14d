package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed input or remote payloads
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNetwork indicates transport-level failures
	ErrCodeNetwork ErrorCode = "NETWORK"

	// ErrCodeDatabase indicates persisted state store failures
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeTransaction indicates a transaction that could not be built, was reverted or vanished
	ErrCodeTransaction ErrorCode = "TRANSACTION"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeRPC indicates Ethereum JSON-RPC errors
	ErrCodeRPC ErrorCode = "RPC"

	// ErrCodeProvisioning indicates an error reported by the validator provisioning service
	ErrCodeProvisioning ErrorCode = "PROVISIONING"

	// ErrCodeTimeout indicates a bounded wait that ran out
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

var (
	// ErrValidatorNotReady is returned when the provisioning service never reported the
	// validator as ready within the allowed number of polls.
	ErrValidatorNotReady = errors.New("validator not ready")

	// ErrTransactionNotFound is returned when neither a receipt nor the transaction itself
	// can be found for a hash we broadcast.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionReverted is returned when a transaction was mined with a failed status.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// SpawnError is an error raised while driving a validator through the spawn sequence.
type SpawnError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	State    string                 `json:"state,omitempty"`
	Severity Severity               `json:"severity"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// NewSpawnError creates a new SpawnError
func NewSpawnError(code ErrorCode, state, message string, cause error) *SpawnError {
	return &SpawnError{
		Code:     code,
		Message:  message,
		State:    state,
		Severity: determineSeverity(code),
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *SpawnError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.State != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.State, e.Code, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *SpawnError) WithContext(key string, value interface{}) *SpawnError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the error is retryable
func (e *SpawnError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeNetwork, ErrCodeRPC:
		return true
	case ErrCodeDatabase:
		return e.Severity != SeverityCritical
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityCritical
	case ErrCodeDatabase, ErrCodeTransaction:
		return SeverityHigh
	case ErrCodeNetwork, ErrCodeRPC, ErrCodeTimeout, ErrCodeProvisioning:
		return SeverityMedium
	case ErrCodeValidation, ErrCodeConfig:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *SpawnError {
	return NewSpawnError(ErrCodeValidation, "", message, nil)
}

// NewNetworkError creates a network error
func NewNetworkError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeNetwork, "", message, cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeDatabase, "", message, cause)
}

// NewTransactionError creates a transaction error
func NewTransactionError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeTransaction, "", message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *SpawnError {
	return NewSpawnError(ErrCodeConfig, "", message, nil)
}

// NewRPCError creates an RPC error
func NewRPCError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeRPC, "", message, cause)
}

// NewProvisioningError creates an error for a failure reported by the provisioning service
func NewProvisioningError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeProvisioning, "", message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *SpawnError {
	return NewSpawnError(ErrCodeTimeout, "", message, nil)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *SpawnError {
	return NewSpawnError(ErrCodeInternal, "", message, cause)
}
