package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler until interrupted",
	Long: `Run the scheduler loop in the foreground. Every tick
(AGENTWATCH_TICK_INTERVAL, default 60s) all due agents are executed
sequentially. Stops on SIGINT or SIGTERM after the agent in flight.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// First pass immediately rather than one tick from now
	if _, err := application.Scheduler.RunDue(ctx, nil); err != nil {
		application.Logger.Error("initial pass failed", "error", err)
	}

	if err := application.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler running every %s. Press Ctrl+C to stop.\n", cfg.TickInterval)

	<-ctx.Done()
	application.Logger.Info("shutdown signal received")
	application.Scheduler.Stop()
	return nil
}
