// Package cli provides the command-line interface for agentwatch.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/agentwatch/internal/app"
	"github.com/raphaelgruber/agentwatch/internal/config"
	"github.com/raphaelgruber/agentwatch/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and engine, set up per invocation
	cfg         config.Config
	application *app.App
	cleanups    []func(context.Context) error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "agentwatch",
	Short: "Poll HTTP endpoints and correlate what they return",
	Long: `agentwatch polls registered HTTP endpoints ("agents") on an interval,
tags semantic entities (emails, URLs, dates, names, locations, prices,
identifiers) in their JSON responses, and correlates agents whose
responses contain the same entities.

Storage defaults to a local SQLite file (AGENTWATCH_SQLITE_PATH).
Set AGENTWATCH_STORE=surrealdb to use SurrealDB instead.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog := config.SetupLogger(cfg.LogFile, level)
		cleanups = append(cleanups, func(context.Context) error { return closeLog() })

		shutdown, err := telemetry.Setup(cfg.Trace, "agentwatch", Version, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		cleanups = append(cleanups, shutdown)

		application, err = app.New(cmd.Context(), cfg, logger, Version)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		cleanups = append(cleanups, application.Close)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeAll()
	},
}

// closeAll releases resources in reverse setup order.
func closeAll() {
	ctx := context.Background()
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
		}
	}
	cleanups = nil
	application = nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	// PersistentPostRun is skipped when RunE fails
	closeAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, defaultTheme.errorStyle().Render("Error: "+err.Error()))
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(executionsCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(correlationsCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(serveCmd)
}
