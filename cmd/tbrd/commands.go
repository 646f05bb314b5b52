package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/api"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/config"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/db"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=...".
var (
	Version = "dev"
	Commit  = ""
)

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		startCmd(),
		versionCmd(),
		initConfigCmd(),
		parseCmd(),
		executeCmd(),
		resolveCmd(),
		requestCmd(),
		quoteCmd(),
		ledgerCmd(),
		queryCmd(),
	)
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the query server over the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(nil)
			if err != nil {
				return err
			}
			n, err := openNode(c, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer n.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cleaner := db.NewRecordCleaner(n.database, c.cfg.CleanupInterval(), c.cfg.RetentionPeriod(), c.logger)
			if err := cleaner.Start(ctx); err != nil {
				return err
			}
			defer cleaner.Stop()

			backend := api.NewLedgerBackend(c.resolver, n.registry, n.relayer, n.store)
			server := api.NewServer(c.logger, c.cfg.QueryServerPort, backend, n.metrics, nil)
			if err := server.Start(); err != nil {
				return err
			}
			c.logger.Info().
				Uint16("local_chain", c.cfg.LocalChain).
				Str("relayer_program", c.deriver.Programs().Relayer.String()).
				Msg("relayer started")

			<-ctx.Done()
			c.logger.Info().Msg("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tbrd version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Name:    tbrd\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit:  %s\n", Commit)
		},
	}
}

func initConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config to <home>/config/tbr_config.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := viper.GetString(flagHome)
			path := config.FilePath(home)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			if err := config.Save(cfg, home); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
