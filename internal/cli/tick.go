package cli

import (
	"fmt"

	"github.com/raphaelgruber/agentwatch/internal/scheduler"
	"github.com/spf13/cobra"
)

var tickPlain bool

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one scheduler pass",
	Long: `Execute every due agent once, sequentially, in storage order, and exit.
Shows a progress bar unless --plain is set.

Useful from an external scheduler such as a crontab entry:
  */5 * * * * agentwatch tick --plain`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

func init() {
	tickCmd.Flags().BoolVar(&tickPlain, "plain", false, "print one line per agent instead of the progress UI")
}

func runTick(cmd *cobra.Command, args []string) error {
	var (
		summary scheduler.PassSummary
		err     error
	)
	if tickPlain {
		out := cmd.OutOrStdout()
		summary, err = application.Scheduler.RunDue(cmd.Context(), plainObserver{out: out, theme: defaultTheme})
		if err == nil {
			fmt.Fprint(out, summaryLine(defaultTheme, summary))
		}
	} else {
		summary, err = RunTickProgress(cmd.Context(), application.Scheduler)
	}
	if err != nil {
		return err
	}
	if summary.Errored > 0 {
		return fmt.Errorf("%d agents hit storage errors", summary.Errored)
	}
	return nil
}
