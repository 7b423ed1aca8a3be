package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is an event-sourced state container driven by action trees",
	Long: `Arbor keeps application state in a single reducer stream per namespace.
Actions are plain functions arranged in a tree; invoking one dispatches a reducer.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the arbor config file")
	rootCmd.PersistentFlags().String("namespace", "", "Override the configured namespace")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// env is what every command builds from flags and the config file.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	storage ports.Storage
	close   func() error
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if ns, _ := cmd.Flags().GetString("namespace"); ns != "" {
		cfg.Namespace = ns
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	storage, closer, err := config.OpenStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	logger.Debug("Storage opened", "driver", cfg.Storage.Driver)

	return &env{cfg: cfg, logger: logger, storage: storage, close: closer}, nil
}

// requireStorage is setup for commands that only make sense with a backend.
func requireStorage(cmd *cobra.Command) (*env, error) {
	e, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	if e.storage == nil {
		return nil, fmt.Errorf("storage driver %q keeps no snapshots", e.cfg.Storage.Driver)
	}
	return e, nil
}
