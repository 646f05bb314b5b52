package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix   = "TBR"
	flagHome    = "home"
	defaultHome = ".tbr"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tbrd",
		Short:         "Token bridge relayer daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagHome, defaultNodeHome(), "Node home directory")
	_ = viper.BindPFlag(flagHome, rootCmd.PersistentFlags().Lookup(flagHome))
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	InitRootCmd(rootCmd)

	return rootCmd
}

func defaultNodeHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultHome
	}
	return filepath.Join(home, defaultHome)
}
