package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/config"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/db"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/executor"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/logger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/metrics"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/registry"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/relay"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/token"
)

// loadConfig reads the config under --home, falling back to the embedded
// defaults when no file exists, then applies TBR_* environment overrides.
func loadConfig() (config.Config, error) {
	home := viper.GetString(flagHome)

	cfg, err := config.Load(home)
	if errors.Is(err, fs.ErrNotExist) {
		def, derr := config.LoadDefaultConfig()
		if derr != nil {
			return config.Config{}, derr
		}
		cfg = *def
	} else if err != nil {
		return config.Config{}, err
	}
	cfg.NodeHome = home

	if v := viper.GetString("log_level"); v != "" {
		level, err := cast.ToIntE(v)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid TBR_LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = level
	}
	if v := viper.GetString("log_format"); v != "" {
		cfg.LogFormat = v
	}
	if v := viper.GetString("solana_rpc_urls"); v != "" {
		cfg.SolanaRPCURLs = cast.ToStringSlice(strings.Split(v, ","))
	}
	if v := viper.GetString("executor_api_url"); v != "" {
		cfg.ExecutorAPIURL = v
	}
	if v := viper.GetString("query_server_port"); v != "" {
		port, err := cast.ToIntE(v)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid TBR_QUERY_SERVER_PORT %q: %w", v, err)
		}
		cfg.QueryServerPort = port
	}
	if v := viper.GetString("database_file"); v != "" {
		cfg.DatabaseFile = v
	}

	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// core holds the components that need no database.
type core struct {
	cfg      config.Config
	logger   zerolog.Logger
	deriver  *pda.Deriver
	resolver *resolver.Resolver
}

// newCore loads the config and builds the shared components. One-shot
// commands pass a writer so logs stay out of their stdout output; the
// daemon passes nil and logs to stdout.
func newCore(logOut io.Writer) (*core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	programs, err := cfg.Deployment()
	if err != nil {
		return nil, err
	}
	log := logger.Init(cfg)
	if logOut != nil {
		log = logger.NewWithWriter(logOut, cfg.LogLevel, cfg.LogFormat, cfg.LogSampler)
	}
	deriver := pda.NewDeriver(programs)
	return &core{
		cfg:      cfg,
		logger:   log,
		deriver:  deriver,
		resolver: resolver.New(deriver, cfg.LocalChain, log),
	}, nil
}

// node is a relayer over the local ledger database.
type node struct {
	*core
	database *db.DB
	store    *ledger.Store
	tokens   *token.Program
	bridge   *bridge.Bridge
	registry *registry.Registry
	relayer  *relay.Relayer
	metrics  *metrics.Metrics
}

func openNode(c *core, registerer prometheus.Registerer) (*node, error) {
	database, err := db.OpenFileDB(filepath.Join(c.cfg.NodeHome, "data"), c.cfg.DatabaseFile, true)
	if err != nil {
		return nil, err
	}

	n := &node{
		core:     c,
		database: database,
		store:    ledger.NewStore(database, c.logger),
		tokens:   token.NewProgram(c.logger),
		metrics:  metrics.New(registerer),
	}
	n.bridge = bridge.New(c.deriver, n.tokens, c.cfg.LocalChain, c.logger)
	n.registry = registry.New(c.deriver, c.cfg.LocalChain, c.logger)
	n.relayer = relay.New(relay.Options{
		Store:      n.store,
		Deriver:    c.deriver,
		Registry:   n.registry,
		Bridge:     n.bridge,
		Executor:   executor.NewProgram(c.cfg.LocalChain, c.logger),
		Tokens:     n.tokens,
		LocalChain: c.cfg.LocalChain,
		Metrics:    n.metrics,
		Logger:     c.logger,
	})
	return n, nil
}

func (n *node) Close() error {
	return n.database.Close()
}
