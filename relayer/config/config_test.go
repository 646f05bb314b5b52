package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
)

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "Valid config with all fields",
			config: &Config{
				LogLevel:          2,
				LogFormat:         "json",
				LocalChain:        1,
				SolanaRPCURLs:     []string{"http://localhost:8899"},
				RPCTimeoutSeconds: 5,
				MaxRetries:        5,
				QueryServerPort:   9000,
			},
			expectError: false,
		},
		{
			name: "Invalid log level (negative)",
			config: &Config{
				LogLevel:  -1,
				LogFormat: "json",
			},
			expectError: true,
			errorMsg:    "log level must be between 0 and 5",
		},
		{
			name: "Invalid log level (too high)",
			config: &Config{
				LogLevel:  6,
				LogFormat: "json",
			},
			expectError: true,
			errorMsg:    "log level must be between 0 and 5",
		},
		{
			name: "Invalid log format",
			config: &Config{
				LogLevel:  2,
				LogFormat: "xml",
			},
			expectError: true,
			errorMsg:    "log format must be 'json' or 'console'",
		},
		{
			name: "Invalid base58 program id",
			config: &Config{
				LogFormat: "json",
				Programs:  ProgramsConfig{Relayer: "0OIl"},
			},
			expectError: true,
			errorMsg:    "program relayer: invalid base58",
		},
		{
			name: "Short program id",
			config: &Config{
				LogFormat: "json",
				Programs:  ProgramsConfig{Executor: "3yZe7d"},
			},
			expectError: true,
			errorMsg:    "program executor: must decode to 32 bytes",
		},
		{
			name: "Config with defaults applied",
			config: &Config{
				LogLevel:  2,
				LogFormat: "json",
			},
			expectError: false,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, uint16(1), cfg.LocalChain)
				assert.Equal(t, "relayer.db", cfg.DatabaseFile)
				assert.Equal(t, []string{"http://localhost:8899"}, cfg.SolanaRPCURLs)
				assert.Equal(t, 10, cfg.RPCTimeoutSeconds)
				assert.Equal(t, 5, cfg.MaxResolveRounds)
				assert.Equal(t, 10, cfg.QuoteTimeoutSeconds)
				assert.Equal(t, 3, cfg.MaxRetries)
				assert.Equal(t, 1, cfg.RetryBackoffSeconds)
				assert.Equal(t, 8080, cfg.QueryServerPort)
				assert.Equal(t, time.Hour, cfg.CleanupInterval())
				assert.Equal(t, 30*24*time.Hour, cfg.RetentionPeriod())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateConfig(tc.config)
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorMsg)
				return
			}
			require.NoError(t, err)
			if tc.validate != nil {
				tc.validate(t, tc.config)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		LogLevel:       0,
		LogFormat:      "console",
		LocalChain:     1,
		ExecutorAPIURL: "http://quoter.local",
	}
	require.NoError(t, Save(cfg, dir))

	info, err := os.Stat(FilePath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, *cfg, loaded)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid json", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, configSubdir), 0o750))
		require.NoError(t, os.WriteFile(FilePath(dir), []byte("{"), 0o600))
		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal config")
	})

	t.Run("invalid values", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, configSubdir), 0o750))
		data, err := json.Marshal(Config{LogFormat: "yaml"})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(FilePath(dir), data, 0o600))
		_, err = Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, validateConfig(cfg))

	programs, err := cfg.Deployment()
	require.NoError(t, err)
	assert.Equal(t, pda.DefaultPrograms(), programs)
	assert.Equal(t, uint16(1), cfg.LocalChain)
	assert.NotEmpty(t, cfg.SolanaRPCURLs)
	assert.Equal(t, 10*time.Second, cfg.RPCTimeout())
}

func TestRetryConfig(t *testing.T) {
	cfg := &Config{MaxRetries: 7, RetryBackoffSeconds: 2}
	retry := cfg.RetryConfig()
	assert.Equal(t, 7, retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, retry.InitialDelay)

	retry = (&Config{}).RetryConfig()
	assert.Equal(t, 3, retry.MaxAttempts)
}
