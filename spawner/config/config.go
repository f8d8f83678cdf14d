package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/pushchain/validator-spawner/spawner/constant"
)

// EnvPrefix namespaces every environment override, e.g. PSPAWNER_P2P_API_KEY.
const EnvPrefix = "PSPAWNER"

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	if cfg.StoreBackend == "" {
		cfg.StoreBackend = StoreBackendSQLite
	}
	if cfg.StoreBackend != StoreBackendSQLite && cfg.StoreBackend != StoreBackendFile {
		return fmt.Errorf("store backend must be 'sqlite' or 'file'")
	}

	// Initialize Networks if nil or empty
	if len(cfg.Networks) == 0 {
		var defaultCfg Config
		if err := json.Unmarshal(defaultConfigJSON, &defaultCfg); err == nil {
			cfg.Networks = defaultCfg.Networks
		} else {
			cfg.Networks = make(map[string]NetworkConfig)
		}
	}
	if cfg.Network == "" {
		cfg.Network = "mainnet"
	}
	if _, ok := cfg.Networks[cfg.Network]; !ok {
		return fmt.Errorf("unknown network %q", cfg.Network)
	}

	// Set defaults for the orchestrator
	if cfg.OperationalPeriodDays == 0 {
		cfg.OperationalPeriodDays = constant.DefaultOperationalPeriod
	}
	if cfg.ErrorThreshold == 0 {
		cfg.ErrorThreshold = constant.DefaultErrorThreshold
	}
	if cfg.PollAttempts == 0 {
		cfg.PollAttempts = constant.DefaultPollAttempts
	}
	if cfg.PollDelayMs == 0 {
		cfg.PollDelayMs = int(constant.DefaultPollDelay.Milliseconds())
	}
	if cfg.LoopIntervalMs == 0 {
		cfg.LoopIntervalMs = int(constant.DefaultLoopInterval.Milliseconds())
	}
	if cfg.ConfirmationTimeoutSeconds == nil {
		timeout := int(constant.DefaultConfirmationTimeout.Seconds())
		cfg.ConfirmationTimeoutSeconds = &timeout
	}
	if *cfg.ConfirmationTimeoutSeconds < 0 {
		return fmt.Errorf("confirmation timeout must not be negative")
	}
	if cfg.ConfirmationPollMs == 0 {
		cfg.ConfirmationPollMs = int(constant.DefaultConfirmationInterval.Milliseconds())
	}
	if cfg.NotFoundRetries == 0 {
		cfg.NotFoundRetries = constant.DefaultNotFoundRetries
	}

	// Set defaults for the daemon
	if cfg.OperateIntervalSeconds == 0 {
		cfg.OperateIntervalSeconds = 300
	}
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	// Set defaults for history cleanup
	if cfg.HistoryCleanupIntervalSeconds == 0 {
		cfg.HistoryCleanupIntervalSeconds = 3600
	}
	if cfg.HistoryRetentionPeriodSeconds == 0 {
		cfg.HistoryRetentionPeriodSeconds = 30 * 24 * 3600
	}

	if cfg.ErrorThreshold < 0 || cfg.PollAttempts < 0 || cfg.NotFoundRetries < 0 {
		return fmt.Errorf("thresholds and retry counts must not be negative")
	}

	return nil
}

// Save writes the given config to <NodeDir>/config/pspawner_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, constant.ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads the config from <BasePath>/config/pspawner_config.json, applies
// PSPAWNER_* environment overrides and fills in defaults.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, constant.ConfigSubdir, constant.ConfigFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.NodeHome == "" {
		cfg.NodeHome = basePath
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnvOverrides overlays PSPAWNER_* environment variables onto cfg.
// Network-scoped keys (rpc urls, addresses) apply to the selected network.
func ApplyEnvOverrides(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	keys := []string{
		"log_level", "log_format", "node_home", "store_backend", "network",
		"p2p_api_key", "signer_private_key", "stake", "error_threshold",
		"operational_period_days", "query_server_port",
		"rpc_urls", "eigen_pod_address", "node_delegator_address", "weth_address", "p2p_base_url",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var err error
	if v.IsSet("log_level") {
		if cfg.LogLevel, err = cast.ToIntE(v.Get("log_level")); err != nil {
			return fmt.Errorf("invalid %s_LOG_LEVEL: %w", EnvPrefix, err)
		}
	}
	if v.IsSet("log_format") {
		cfg.LogFormat = v.GetString("log_format")
	}
	if v.IsSet("node_home") {
		cfg.NodeHome = v.GetString("node_home")
	}
	if v.IsSet("store_backend") {
		cfg.StoreBackend = StoreBackend(v.GetString("store_backend"))
	}
	if v.IsSet("network") {
		cfg.Network = v.GetString("network")
	}
	if v.IsSet("p2p_api_key") {
		cfg.P2PAPIKey = v.GetString("p2p_api_key")
	}
	if v.IsSet("signer_private_key") {
		cfg.SignerPrivateKey = v.GetString("signer_private_key")
	}
	if v.IsSet("stake") {
		if cfg.Stake, err = cast.ToBoolE(v.Get("stake")); err != nil {
			return fmt.Errorf("invalid %s_STAKE: %w", EnvPrefix, err)
		}
	}
	if v.IsSet("error_threshold") {
		if cfg.ErrorThreshold, err = cast.ToIntE(v.Get("error_threshold")); err != nil {
			return fmt.Errorf("invalid %s_ERROR_THRESHOLD: %w", EnvPrefix, err)
		}
	}
	if v.IsSet("operational_period_days") {
		if cfg.OperationalPeriodDays, err = cast.ToIntE(v.Get("operational_period_days")); err != nil {
			return fmt.Errorf("invalid %s_OPERATIONAL_PERIOD_DAYS: %w", EnvPrefix, err)
		}
	}
	if v.IsSet("query_server_port") {
		if cfg.QueryServerPort, err = cast.ToIntE(v.Get("query_server_port")); err != nil {
			return fmt.Errorf("invalid %s_QUERY_SERVER_PORT: %w", EnvPrefix, err)
		}
	}

	networkKeys := []string{"rpc_urls", "eigen_pod_address", "node_delegator_address", "weth_address", "p2p_base_url"}
	touched := false
	for _, key := range networkKeys {
		touched = touched || v.IsSet(key)
	}
	if !touched {
		return nil
	}

	name := cfg.Network
	if name == "" {
		name = "mainnet"
	}
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]NetworkConfig)
	}
	network := cfg.Networks[name]
	if v.IsSet("rpc_urls") {
		network.RPCURLs = splitList(v.GetString("rpc_urls"))
	}
	if v.IsSet("eigen_pod_address") {
		network.EigenPodAddress = v.GetString("eigen_pod_address")
	}
	if v.IsSet("node_delegator_address") {
		network.NodeDelegatorAddress = v.GetString("node_delegator_address")
	}
	if v.IsSet("weth_address") {
		network.WETHAddress = v.GetString("weth_address")
	}
	if v.IsSet("p2p_base_url") {
		network.P2PBaseURL = v.GetString("p2p_base_url")
	}
	cfg.Networks[name] = network
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
