package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
)

func testRetryConfig() *spawnerrors.RetryConfig {
	return &spawnerrors.RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		Multiplier:      2,
		RetryableErrors: []spawnerrors.ErrorCode{spawnerrors.ErrCodeNetwork},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", zerolog.Nop(), WithRetryConfig(testRetryConfig()))
}

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, "https://api.p2p.org", NewClient("api.p2p.org", "k", zerolog.Nop()).baseURL)
	assert.Equal(t, "https://api-test.p2p.org", NewClient("https://api-test.p2p.org/", "k", zerolog.Nop()).baseURL)
	assert.Equal(t, "http://127.0.0.1:8080", NewClient("http://127.0.0.1:8080", "k", zerolog.Nop()).baseURL)
}

func TestCreateRequest(t *testing.T) {
	var received CreateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/eth/staking/ssv/request/create", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "without-encrypt-key", raw["type"])
		assert.Contains(t, raw, "ssvOwnerAddress")

		data, _ := json.Marshal(raw)
		require.NoError(t, json.Unmarshal(data, &received))
		_, _ = w.Write([]byte(`{"error":null,"result":{"id":"req-1"}}`))
	})

	err := client.CreateRequest(context.Background(), CreateRequest{
		ValidatorsCount:       1,
		ID:                    "req-1",
		WithdrawalAddress:     "0xpod",
		FeeRecipientAddress:   "0xdelegator",
		SSVOwnerAddress:       "0xdelegator",
		Type:                  "without-encrypt-key",
		OperationPeriodInDays: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, received.ValidatorsCount)
	assert.Equal(t, "req-1", received.ID)
	assert.Equal(t, "0xpod", received.WithdrawalAddress)
	assert.Equal(t, "0xdelegator", received.FeeRecipientAddress)
	assert.Equal(t, 90, received.OperationPeriodInDays)
}

func TestCreateRequest_ServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":4001,"message":"insufficient SSV"},"result":null}`))
	})

	err := client.CreateRequest(context.Background(), CreateRequest{ID: "req-1"})
	require.Error(t, err)
	assert.True(t, spawnerrors.IsSpawnError(err, spawnerrors.ErrCodeProvisioning))
	assert.Contains(t, err.Error(), "insufficient SSV")
}

func TestPollStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/eth/staking/ssv/request/status/req-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"error":null,"result":{
			"status":"ready",
			"validatorRegistrationTxs":[{"data":"0x06e8fb9c01"}],
			"depositData":[{"pubkey":"0xaa","signature":"0xbb","depositDataRoot":"0xcc"}],
			"encryptedShares":[{"sharesData":"0xdd"}]
		}}`))
	})

	result, err := client.PollStatus(context.Background(), "req-1")
	require.NoError(t, err)
	assert.True(t, result.Ready())
	assert.Equal(t, "0x06e8fb9c01", result.RegistrationData())
	assert.Equal(t, &DepositData{Pubkey: "0xaa", Signature: "0xbb", DepositDataRoot: "0xcc"}, result.FirstDepositData())
	assert.Equal(t, "0xdd", result.SharesData())
}

func TestPollStatus_NotReady(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":null,"result":{"status":"processing"}}`))
	})

	result, err := client.PollStatus(context.Background(), "req-1")
	require.NoError(t, err)
	assert.False(t, result.Ready())
	assert.Empty(t, result.RegistrationData())
	assert.Nil(t, result.FirstDepositData())
	assert.Empty(t, result.SharesData())
}

func TestPollStatus_RequiresID(t *testing.T) {
	client := NewClient("api.p2p.org", "k", zerolog.Nop())
	_, err := client.PollStatus(context.Background(), "")
	assert.True(t, spawnerrors.IsSpawnError(err, spawnerrors.ErrCodeValidation))
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"error":null,"result":{"status":"ready"}}`))
	})

	result, err := client.PollStatus(context.Background(), "req-1")
	require.NoError(t, err)
	assert.True(t, result.Ready())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`unauthorized`))
	})

	_, err := client.PollStatus(context.Background(), "req-1")
	require.Error(t, err)
	assert.True(t, spawnerrors.IsSpawnError(err, spawnerrors.ErrCodeProvisioning))
	assert.Contains(t, err.Error(), "unexpected status 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_ErrorFieldOnNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"request id already used"}`))
	})

	err := client.CreateRequest(context.Background(), CreateRequest{ID: "req-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request id already used")
}

func TestDo_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := client.PollStatus(context.Background(), "req-1")
	require.Error(t, err)
	assert.True(t, spawnerrors.IsSpawnError(err, spawnerrors.ErrCodeValidation))
}

func TestDo_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":null,"result":{}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.PollStatus(ctx, "req-1")
	assert.ErrorIs(t, err, context.Canceled)
}
