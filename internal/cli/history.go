package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	corrAgent    string
)

var executionsCmd = &cobra.Command{
	Use:   "executions <agent-id>",
	Short: "List an agent's executions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecutions,
}

var entitiesCmd = &cobra.Command{
	Use:   "entities <execution-id>",
	Short: "List entities tagged in one execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntities,
}

var correlationsCmd = &cobra.Command{
	Use:   "correlations",
	Short: "List correlations between agents, newest first",
	Long: `List correlations between agents that observed identical entities.

Examples:
  agentwatch correlations
  agentwatch correlations --agent 3f1c9a0e-... -n 5`,
	Args: cobra.NoArgs,
	RunE: runCorrelations,
}

func init() {
	executionsCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max results")
	correlationsCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max results")
	correlationsCmd.Flags().StringVarP(&corrAgent, "agent", "a", "", "only correlations touching this agent")
}

func runExecutions(cmd *cobra.Command, args []string) error {
	execs, err := application.Agents.Executions(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(execs) == 0 {
		fmt.Fprintln(out, "No executions yet.")
		return nil
	}

	fmt.Fprintf(out, "%-36s %-19s %-8s %-5s %-8s %s\n", "ID", "STARTED", "STATUS", "CODE", "LATENCY", "DETAIL")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, e := range execs {
		code := "-"
		if e.StatusCode != 0 {
			code = fmt.Sprintf("%d", e.StatusCode)
		}
		detail := fmt.Sprintf("%d bytes", e.ResponseSize)
		if e.Status != models.ExecutionSuccess {
			detail = e.Error
		}
		fmt.Fprintf(out, "%-36s %-19s %-8s %-5s %-8s %s\n",
			e.ID, e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Status, code,
			fmt.Sprintf("%dms", e.LatencyMs), detail)
		if verbose && e.Payload != "" {
			fmt.Fprintf(out, "  %s\n", truncate(e.Payload, 200))
		}
	}
	return nil
}

func runEntities(cmd *cobra.Command, args []string) error {
	entities, err := application.Agents.Entities(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entities) == 0 {
		fmt.Fprintln(out, "No entities found.")
		return nil
	}

	fmt.Fprintf(out, "Entities (%d):\n\n", len(entities))
	for _, e := range entities {
		fmt.Fprintf(out, "- %s [%s] at %s (%.2f)\n", e.Value, e.Type, e.FieldPath, e.Confidence)
	}
	return nil
}

func runCorrelations(cmd *cobra.Command, args []string) error {
	correlations, err := application.Agents.Correlations(cmd.Context(), corrAgent, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(correlations) == 0 {
		fmt.Fprintln(out, "No correlations found.")
		return nil
	}

	fmt.Fprintf(out, "Correlations (%d):\n\n", len(correlations))
	for _, c := range correlations {
		printCorrelation(out, c)
	}
	return nil
}

func printCorrelation(out io.Writer, c models.Correlation) {
	fmt.Fprintf(out, "- %s %s → %s (%.2f)\n", defaultTheme.statusStyle().Render(string(c.Type)),
		c.SourceAgentID, c.TargetAgentID, c.Strength)
	if verbose {
		fmt.Fprintf(out, "  Shared: %s\n", strings.Join(c.SharedEntities, ", "))
	}
}
