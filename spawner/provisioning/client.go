// Package provisioning is a client for the P2P.org SSV validator provisioning API.
package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
)

const (
	createPath = "/api/v1/eth/staking/ssv/request/create"
	statusPath = "/api/v1/eth/staking/ssv/request/status/"

	maxResponseBytes = 10 * 1024 * 1024
)

// Client talks to the provisioning service. It holds no state besides its
// credentials, so it is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *spawnerrors.RetryConfig
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetryConfig replaces the retry policy applied to transport failures.
func WithRetryConfig(cfg *spawnerrors.RetryConfig) Option {
	return func(cl *Client) { cl.retry = cfg }
}

// NewClient creates a client for the given host (e.g. api.p2p.org). A base
// carrying an explicit scheme is used as is.
func NewClient(base, apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	c := &Client{
		baseURL: base,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retry:  spawnerrors.DefaultRetryConfig(),
		logger: logger.With().Str("component", "provisioning_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRequest submits a validator creation request.
func (c *Client) CreateRequest(ctx context.Context, req CreateRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return spawnerrors.NewInternalError("failed to marshal create request", err)
	}

	env, err := c.do(ctx, http.MethodPost, c.baseURL+createPath, body)
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("request_id", req.ID).
		RawJSON("result", nonEmptyJSON(env.Result)).
		Msg("validator creation requested")
	return nil
}

// PollStatus fetches the current status of a creation request.
func (c *Client) PollStatus(ctx context.Context, requestID string) (*StatusResult, error) {
	if requestID == "" {
		return nil, spawnerrors.NewValidationError("request id is required")
	}

	env, err := c.do(ctx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(requestID), nil)
	if err != nil {
		return nil, err
	}

	var result StatusResult
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &result); err != nil {
			return nil, spawnerrors.NewValidationError("malformed status result").WithContext("cause", err.Error())
		}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("status", result.Status).
		Msg("polled validator status")
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*envelope, error) {
	var env *envelope
	err := spawnerrors.RetryWithConfig(ctx, func() error {
		var err error
		env, err = c.doOnce(ctx, method, endpoint, body)
		return err
	}, c.retry)
	return env, err
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, spawnerrors.NewInternalError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, spawnerrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, endpoint), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, spawnerrors.NewNetworkError("failed to read response", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	if decodeErr == nil && env.failed() {
		return nil, spawnerrors.NewProvisioningError(
			fmt.Sprintf("provisioning service returned error: %s", string(env.Error)), nil,
		).WithContext("http_status", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 512))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, spawnerrors.NewNetworkError(msg, nil)
		}
		return nil, spawnerrors.NewProvisioningError(msg, nil).WithContext("http_status", resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, spawnerrors.NewValidationError("malformed response body").WithContext("cause", decodeErr.Error())
	}
	return &env, nil
}

func nonEmptyJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
