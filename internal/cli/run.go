package cli

import (
	"fmt"
	"io"

	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <agent-id>",
	Short: "Execute an agent now",
	Long: `Execute an agent immediately and print what it produced.
Works for paused agents too. The run counts toward the agent's stats and
reschedules its next run.

Examples:
  agentwatch run 3f1c9a0e-...
  agentwatch run 3f1c9a0e-... -v    # also list tagged entities`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	res, err := application.Agents.RunNow(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res, verbose)
	if res.Execution.Status != models.ExecutionSuccess {
		return fmt.Errorf("execution failed: %s", res.Execution.Error)
	}
	return nil
}

func printResult(out io.Writer, res *runner.Result, details bool) {
	e := res.Execution
	if e.Status == models.ExecutionSuccess {
		fmt.Fprintln(out, defaultTheme.completedStyle().Render("✓ "+res.Agent.Name))
	} else {
		fmt.Fprintln(out, defaultTheme.errorStyle().Render("✗ "+res.Agent.Name))
	}
	fmt.Fprintf(out, "  Execution: %s\n", e.ID)
	if e.StatusCode != 0 {
		fmt.Fprintf(out, "  Status code: %d\n", e.StatusCode)
	}
	fmt.Fprintf(out, "  Latency: %dms\n", e.LatencyMs)
	fmt.Fprintf(out, "  Response size: %d bytes\n", e.ResponseSize)
	if e.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", e.Error)
	}
	fmt.Fprintf(out, "  Entities: %d\n", len(res.Entities))
	fmt.Fprintf(out, "  Correlations: %d\n", len(res.Correlations))
	fmt.Fprintf(out, "  Next run: %s\n", formatOptTime(res.Agent.NextRun))

	if !details {
		return
	}
	for _, en := range res.Entities {
		fmt.Fprintf(out, "    • %-12s %-32s %s (%.2f)\n", en.Type, truncate(en.Value, 32), en.FieldPath, en.Confidence)
	}
	for _, c := range res.Correlations {
		printCorrelation(out, c)
	}
}
