package config

import (
	"time"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
)

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome     string `json:"node_home"`     // Home directory (default: ~/.tbr)
	DatabaseFile string `json:"database_file"` // SQLite file under <node_home>/data (default: relayer.db)

	// Deployment
	LocalChain uint16         `json:"local_chain"` // Wormhole chain id of this chain (default: 1)
	Programs   ProgramsConfig `json:"programs"`    // Program ids; empty fields use the devnet deployment

	// Solana RPC
	SolanaRPCURLs     []string `json:"solana_rpc_urls"`     // Tried in order until one answers
	RPCTimeoutSeconds int      `json:"rpc_timeout_seconds"` // Per request (default: 10)
	MaxResolveRounds  int      `json:"max_resolve_rounds"`  // Resolve rounds before giving up (default: 5)

	// Executor quoter
	ExecutorAPIURL      string `json:"executor_api_url"`      // Base URL of the quote service
	QuoteTimeoutSeconds int    `json:"quote_timeout_seconds"` // (default: 10)

	// Retries for network calls
	MaxRetries          int `json:"max_retries"`           // (default: 3)
	RetryBackoffSeconds int `json:"retry_backoff_seconds"` // Initial backoff (default: 1)

	// Query Server Config
	QueryServerPort int `json:"query_server_port"` // Port for HTTP query server (default: 8080)

	// Record retention for execution requests and redemptions
	RecordCleanupIntervalSeconds int `json:"record_cleanup_interval_seconds"` // (default: 3600)
	RecordRetentionHours         int `json:"record_retention_hours"`          // (default: 720)
}

// ProgramsConfig holds base58 program ids.
type ProgramsConfig struct {
	Relayer     string `json:"relayer,omitempty"`
	CoreBridge  string `json:"core_bridge,omitempty"`
	TokenBridge string `json:"token_bridge,omitempty"`
	Executor    string `json:"executor,omitempty"`
}

// Deployment returns the configured program ids.
func (c *Config) Deployment() (pda.Programs, error) {
	return pda.ParsePrograms(c.Programs.Relayer, c.Programs.CoreBridge, c.Programs.TokenBridge, c.Programs.Executor)
}

// RetryConfig returns the backoff used for RPC and quote requests.
func (c *Config) RetryConfig() *tbrerrors.RetryConfig {
	retry := tbrerrors.DefaultRetryConfig()
	if c.MaxRetries > 0 {
		retry.MaxAttempts = c.MaxRetries
	}
	if c.RetryBackoffSeconds > 0 {
		retry.InitialDelay = time.Duration(c.RetryBackoffSeconds) * time.Second
	}
	return retry
}

func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSeconds) * time.Second
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.RecordCleanupIntervalSeconds) * time.Second
}

func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.RecordRetentionHours) * time.Hour
}

func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.QuoteTimeoutSeconds) * time.Second
}
