package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
)

const (
	configSubdir   = "config"
	configFileName = "tbr_config.json"
)

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

	if cfg.LocalChain == 0 {
		cfg.LocalChain = 1
	}

	programs := []struct {
		name string
		id   string
	}{
		{"relayer", cfg.Programs.Relayer},
		{"core_bridge", cfg.Programs.CoreBridge},
		{"token_bridge", cfg.Programs.TokenBridge},
		{"executor", cfg.Programs.Executor},
	}
	for _, p := range programs {
		if p.id == "" {
			continue
		}
		raw, err := base58.Decode(p.id)
		if err != nil {
			return fmt.Errorf("program %s: invalid base58: %w", p.name, err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("program %s: must decode to 32 bytes, got %d", p.name, len(raw))
		}
	}

	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = "relayer.db"
	}

	// Set defaults for RPC
	if len(cfg.SolanaRPCURLs) == 0 {
		cfg.SolanaRPCURLs = []string{"http://localhost:8899"}
	}
	if cfg.RPCTimeoutSeconds == 0 {
		cfg.RPCTimeoutSeconds = 10
	}
	if cfg.MaxResolveRounds == 0 {
		cfg.MaxResolveRounds = 5
	}

	if cfg.QuoteTimeoutSeconds == 0 {
		cfg.QuoteTimeoutSeconds = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoffSeconds == 0 {
		cfg.RetryBackoffSeconds = 1
	}

	// Set defaults for query server
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	if cfg.RecordCleanupIntervalSeconds == 0 {
		cfg.RecordCleanupIntervalSeconds = 3600
	}
	if cfg.RecordRetentionHours == 0 {
		cfg.RecordRetentionHours = 720
	}
	return nil
}

// Validate checks cfg and fills in defaults.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// Save writes the given config to <basePath>/config/tbr_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, configSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, configFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads and validates the config from <basePath>/config/tbr_config.json.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, configSubdir, configFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
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

// FilePath returns the config file location under basePath.
func FilePath(basePath string) string {
	return filepath.Join(basePath, configSubdir, configFileName)
}
