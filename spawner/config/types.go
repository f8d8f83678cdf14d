package config

import (
	"fmt"
	"time"
)

// StoreBackend selects where the progress record is persisted.
type StoreBackend string

const (
	// StoreBackendSQLite keeps the record in the node's SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendFile keeps the record in a JSON key-value file under the node home.
	StoreBackendFile StoreBackend = "file"
)

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome     string       `json:"node_home"`     // Node home directory (default: ~/.pspawner)
	StoreBackend StoreBackend `json:"store_backend"` // "sqlite" or "file" (default: sqlite)

	// Network selection
	Network  string                   `json:"network"`  // Key into Networks (default: mainnet)
	Networks map[string]NetworkConfig `json:"networks"` // Per-network addresses and endpoints

	// Credentials, usually supplied through PSPAWNER_* environment variables
	P2PAPIKey        string `json:"p2p_api_key"`
	SignerPrivateKey string `json:"signer_private_key"` // hex, with or without 0x

	// Orchestrator
	OperationalPeriodDays      int  `json:"operational_period_days"`      // Requested validator lifetime (default: 90)
	Stake                      bool `json:"stake"`                        // Broadcast the 32 ETH deposit after registration
	ErrorThreshold             int  `json:"error_threshold"`              // Counted errors before the record is abandoned (default: 5)
	PollAttempts               int  `json:"poll_attempts"`                // Not-ready polls tolerated (default: 20)
	PollDelayMs                int  `json:"poll_delay_ms"`                // Delay between status polls (default: 3000)
	LoopIntervalMs             int  `json:"loop_interval_ms"`             // Delay between state machine iterations (default: 1000)
	ConfirmationTimeoutSeconds *int `json:"confirmation_timeout_seconds"` // Upper bound on a confirmation wait, 0 = unbounded (default: 1800)
	ConfirmationPollMs         int  `json:"confirmation_poll_ms"`         // Receipt polling interval (default: 4000)
	NotFoundRetries            int  `json:"not_found_retries"`            // Consecutive unknown-hash checks before failing (default: 10)

	// Daemon
	OperateIntervalSeconds int `json:"operate_interval_seconds"` // How often `start` invokes operate (default: 300)
	QueryServerPort        int `json:"query_server_port"`        // Port for HTTP query server (default: 8080)

	// Attempt history cleanup
	HistoryCleanupIntervalSeconds int `json:"history_cleanup_interval_seconds"` // default: 3600
	HistoryRetentionPeriodSeconds int `json:"history_retention_period_seconds"` // default: 30 days
}

// NetworkConfig holds every network-specific address and endpoint in one place.
type NetworkConfig struct {
	ChainID              int64    `json:"chain_id"`
	RPCURLs              []string `json:"rpc_urls"`
	NodeDelegatorAddress string   `json:"node_delegator_address"` // Fee recipient and SSV owner
	WETHAddress          string   `json:"weth_address"`
	EigenPodAddress      string   `json:"eigen_pod_address"` // Withdrawal address, no published default
	P2PBaseURL           string   `json:"p2p_base_url"`      // Host of the provisioning API, e.g. api.p2p.org
}

// ActiveNetwork returns the settings of the selected network.
func (c *Config) ActiveNetwork() (NetworkConfig, error) {
	if c.Networks == nil {
		return NetworkConfig{}, fmt.Errorf("no network configs found")
	}
	network, ok := c.Networks[c.Network]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("no config found for network %s", c.Network)
	}
	return network, nil
}

func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.PollDelayMs) * time.Millisecond
}

func (c *Config) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalMs) * time.Millisecond
}

func (c *Config) ConfirmationPollInterval() time.Duration {
	return time.Duration(c.ConfirmationPollMs) * time.Millisecond
}

// ConfirmationTimeout returns zero when confirmation waits are unbounded.
func (c *Config) ConfirmationTimeout() time.Duration {
	if c.ConfirmationTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*c.ConfirmationTimeoutSeconds) * time.Second
}
