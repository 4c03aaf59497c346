package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfgFile is the explicit config file path, if any.
	cfgFile string

	// cfg, logger and db are prepared for every subcommand by the root pre-run.
	cfg    *config.Config
	logger zerolog.Logger
	db     *store.Store
)

var rootCmd = &cobra.Command{
	Use:           "mudra",
	Short:         "Steer a particle galaxy with your bare hands",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger = logging.New(cfg.Log.Level, os.Stderr, cfg.Log.Pretty)

		if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err = store.New(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: <data-dir>/config.yaml)")
	pf.String("data-dir", config.DefaultDataDir(), "directory for the database and config file")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.Bool("pretty", false, "human-readable console logs")
}
