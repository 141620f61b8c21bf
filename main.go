// Copyright (c) 2024 cblomart
// Licensed under the MIT License

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"newsharvest/internal/config"
	"newsharvest/internal/logging"
)

var version = "dev"

var (
	cfgFile  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsharvest",
		Short: "Collect, store and enrich financial news",
		Long: `newsharvest gathers financial news from a paginated search API and
RSS/Atom feeds, stores the records as CSV datasets, enriches them with
derived text columns and serves them over an OData-style HTTP API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default $NEWSHARVEST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger, with the
// --log-level flag taking precedence over the file
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return cfg, logging.New(level), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsharvest %s\n", version)
		},
	}
}
