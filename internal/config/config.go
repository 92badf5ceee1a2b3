// Package config defines bookrate configuration and its layered loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backend names accepted by the backend setting.
const (
	BackendRPC    = "rpc"
	BackendMemory = "memory"
)

// DefaultContractID is the deployed shelf contract.
const DefaultContractID = "ratings.primerlabs.testnet"

// Config contains process configuration.
type Config struct {
	// Backend selects the wallet implementation: rpc or memory.
	Backend string `koanf:"backend"`

	// Network is informational (testnet, mainnet) and picks RPC defaults.
	Network string `koanf:"network"`

	// RPCURL is the NEAR JSON-RPC endpoint used for views and tx status.
	RPCURL string `koanf:"rpc_url"`

	// RelayerURL signs and broadcasts change calls on behalf of the account.
	RelayerURL string `koanf:"relayer_url"`

	ContractID string `koanf:"contract_id"`
	AccountID  string `koanf:"account_id"`

	// SessionFile stores the signed-in account between runs.
	SessionFile string `koanf:"session_file"`

	LogFile  string `koanf:"log_file"`
	LogLevel string `koanf:"log_level"`

	// PollIntervalMS and PollAttempts bound transaction-result polling.
	PollIntervalMS int `koanf:"poll_interval_ms"`
	PollAttempts   int `koanf:"poll_attempts"`

	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Addr is the listen address for the serve command.
	Addr string `koanf:"addr"`

	// MetricsBuckets overrides the submission latency histogram buckets, in
	// seconds. Empty keeps the recorder defaults.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
}

// New returns a Config populated with defaults.
func New() *Config {
	dir := stateDir()
	return &Config{
		Backend:          BackendRPC,
		Network:          "testnet",
		RPCURL:           "https://rpc.testnet.near.org",
		RelayerURL:       "http://127.0.0.1:3030",
		ContractID:       DefaultContractID,
		SessionFile:      filepath.Join(dir, "session.json"),
		LogFile:          filepath.Join(dir, "bookrate.log"),
		LogLevel:         "info",
		PollIntervalMS:   500,
		PollAttempts:     40,
		RequestTimeoutMS: 15_000,
		Addr:             "127.0.0.1:6143",
	}
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate checks the settings the selected backend depends on.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendRPC:
		if c.RPCURL == "" {
			return fmt.Errorf("%w: rpc_url must not be empty", ErrInvalidConfig)
		}
		if c.RelayerURL == "" {
			return fmt.Errorf("%w: relayer_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.ContractID == "" {
		return fmt.Errorf("%w: contract_id must not be empty", ErrInvalidConfig)
	}
	if c.PollIntervalMS <= 0 || c.PollAttempts <= 0 {
		return fmt.Errorf("%w: poll_interval_ms and poll_attempts must be positive", ErrInvalidConfig)
	}
	if c.SessionFile == "" {
		return fmt.Errorf("%w: session_file must not be empty", ErrInvalidConfig)
	}
	for i, b := range c.MetricsBuckets {
		if b <= 0 || (i > 0 && b <= c.MetricsBuckets[i-1]) {
			return fmt.Errorf("%w: metrics_buckets must be positive and increasing", ErrInvalidConfig)
		}
	}
	return nil
}

func stateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bookrate")
	}
	return ".bookrate"
}
