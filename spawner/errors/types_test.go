package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpawnError_Error(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")

	err := NewNetworkError("status request failed", cause)
	assert.Equal(t, "[NETWORK] status request failed: dial tcp: i/o timeout", err.Error())

	err.State = "validator_creation_issued"
	assert.Equal(t, "[validator_creation_issued:NETWORK] status request failed: dial tcp: i/o timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestDetermineSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NewInternalError("boom", nil).Severity)
	assert.Equal(t, SeverityHigh, NewDatabaseError("write failed", nil).Severity)
	assert.Equal(t, SeverityHigh, NewTransactionError("reverted", nil).Severity)
	assert.Equal(t, SeverityMedium, NewProvisioningError("rejected", nil).Severity)
	assert.Equal(t, SeverityMedium, NewTimeoutError("too slow").Severity)
	assert.Equal(t, SeverityLow, NewConfigError("missing").Severity)
}

func TestWithState(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WithState(nil, "validator_registered"))
	})

	t.Run("spawn error gains state", func(t *testing.T) {
		err := WithState(NewRPCError("nonce lookup failed", nil), "validator_registered")
		assert.Equal(t, "validator_registered", StateOf(err))
		assert.True(t, IsSpawnError(err, ErrCodeRPC))
	})

	t.Run("existing state is kept", func(t *testing.T) {
		inner := NewSpawnError(ErrCodeTimeout, "register_transaction_broadcast", "wait expired", nil)
		err := WithState(fmt.Errorf("confirm: %w", inner), "deposit_transaction_broadcast")
		assert.Equal(t, "register_transaction_broadcast", StateOf(err))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		cause := errors.New("unexpected")
		err := WithState(cause, "validator_creation_confirmed")
		assert.True(t, IsSpawnError(err, ErrCodeInternal))
		assert.Equal(t, "validator_creation_confirmed", StateOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("sentinel survives", func(t *testing.T) {
		err := WithState(NewSpawnError(ErrCodeTransaction, "", "unknown hash", ErrTransactionNotFound), "deposit_transaction_broadcast")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(NewNetworkError("x", nil)))
	assert.True(t, IsRetryable(NewRPCError("x", nil)))
	assert.False(t, IsRetryable(NewTimeoutError("x")))
	assert.False(t, IsRetryable(NewProvisioningError("x", nil)))
	assert.True(t, IsRetryable(errors.New("429 Too Many Requests")))
	assert.False(t, IsRetryable(errors.New("bad request")))
}
