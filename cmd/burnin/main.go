// Package main is the entry point for the burnin stress harness. It loads
// the layered configuration, builds the shared console sink and hands
// control to the harness, which runs until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/config"
	"github.com/burnin-project/burnin/internal/console"
	"github.com/burnin-project/burnin/internal/harness"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
		maxRuntime time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "burnin",
		Short: "Load every major hardware subsystem at once",
		Long: `burnin drives sustained load onto the CPU cores, the cache hierarchy,
RAM, disk and network in parallel, and reports system-wide utilization
until interrupted.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, logLevel, maxRuntime)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file path (default: search ~/.burnin and /etc/burnin)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn or error")
	rootCmd.Flags().DurationVar(&maxRuntime, "max-runtime", 0,
		"stop after this duration (0 runs until interrupted)")

	rootCmd.AddCommand(buildConfigCommand())

	return rootCmd
}

func run(ctx context.Context, configPath, logLevel string, maxRuntime time.Duration) error {
	overrides := config.CLIOverrides{LogLevel: logLevel, MaxRuntime: maxRuntime}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadLayered(overrides, embeddedConfig, configPath)
	} else {
		cfg, err = config.LoadLayered(overrides, embeddedConfig)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sink := console.New(cfg.Logging.Level, cfg.Logging.File)
	defer sink.Sync()

	sink.Logger().Info("starting burnin",
		zap.String("version", version),
		zap.String("network_url", cfg.Network.URL),
		zap.String("disk_path", cfg.Disk.Path))

	return harness.New(cfg, sink).Run(ctx)
}

func buildConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(buildConfigInitCommand())
	return configCmd
}

func buildConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file with the built-in defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.WriteConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
