package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/service"
	"github.com/spf13/cobra"
)

var (
	addMethod   string
	addHeaders  []string
	addQuery    []string
	addBody     string
	addExtract  string
	addAuth     string
	addSecret   string
	addInterval int
	addDisabled bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agents",
	Long: `Register, inspect, and pause agents.

Subcommands:
  add      Register an endpoint
  import   Register agents from a YAML file
  list     List agents (default)
  show     Show one agent
  enable   Resume scheduled polling
  disable  Pause scheduled polling`,
	RunE: runAgentList,
}

var agentAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register an endpoint to poll",
	Long: `Register an HTTP endpoint to poll on an interval.

Examples:
  agentwatch agent add weather "https://api.example.com/weather" --query city=Berlin
  agentwatch agent add crm "https://crm.example.com/api/contacts" --auth bearer --secret $TOKEN --every 15
  agentwatch agent add search "https://api.example.com/search" -X POST --body '{"q":"x"}' --extract '$.data.items'`,
	Args: cobra.ExactArgs(2),
	RunE: runAgentAdd,
}

var agentImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Register agents from a YAML file",
	Long: `Register every agent listed in a YAML file. Nothing is stored
unless every entry is valid. Use "-" to read from stdin.

Example file:
  agents:
    - name: weather
      url: https://api.example.com/weather
      query_params: {city: Berlin}
      interval_minutes: 10
    - name: crm
      url: https://crm.example.com/api/contacts
      auth_method: bearer
      auth_secret: s3cret
      interval_minutes: 60`,
	Args: cobra.ExactArgs(1),
	RunE: runAgentImport,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE:  runAgentList,
}

var agentShowCmd = &cobra.Command{
	Use:   "show <agent-id>",
	Short: "Show one agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentShow,
}

var agentEnableCmd = &cobra.Command{
	Use:   "enable <agent-id>",
	Short: "Resume scheduled polling",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var agentDisableCmd = &cobra.Command{
	Use:   "disable <agent-id>",
	Short: "Pause scheduled polling",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func init() {
	f := agentAddCmd.Flags()
	f.StringVarP(&addMethod, "method", "X", "GET", "HTTP method")
	f.StringArrayVarP(&addHeaders, "header", "H", nil, "custom header as Key: Value (repeatable)")
	f.StringArrayVarP(&addQuery, "query", "q", nil, "query parameter as key=value (repeatable)")
	f.StringVar(&addBody, "body", "", "request body for methods that send one")
	f.StringVar(&addExtract, "extract", "", "dotted path into the response, e.g. $.data.items")
	f.StringVar(&addAuth, "auth", "none", "auth method (none, bearer, api_key, basic)")
	f.StringVar(&addSecret, "secret", "", "token, key, or user:password for basic")
	f.IntVar(&addInterval, "every", 60, "polling interval in minutes")
	f.BoolVar(&addDisabled, "disabled", false, "register without scheduling")

	agentCmd.AddCommand(agentAddCmd)
	agentCmd.AddCommand(agentImportCmd)
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentShowCmd)
	agentCmd.AddCommand(agentEnableCmd)
	agentCmd.AddCommand(agentDisableCmd)
}

func runAgentAdd(cmd *cobra.Command, args []string) error {
	headers, err := parsePairs(addHeaders, ":")
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	query, err := parsePairs(addQuery, "=")
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	enabled := !addDisabled

	agent, err := application.Agents.Register(cmd.Context(), service.AgentInput{
		Name:            args[0],
		URL:             args[1],
		Method:          addMethod,
		Headers:         headers,
		QueryParams:     query,
		BodyTemplate:    addBody,
		ExtractPath:     addExtract,
		AuthMethod:      models.AuthMethod(addAuth),
		AuthSecret:      addSecret,
		IntervalMinutes: addInterval,
		Enabled:         &enabled,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered agent: %s (%s)\n", agent.Name, agent.ID)
	if verbose {
		printAgent(out, agent)
	}
	return nil
}

func runAgentImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	agents, err := application.Agents.Import(cmd.Context(), r)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d agents:\n", len(agents))
	for _, a := range agents {
		fmt.Fprintf(out, "- %s (%s)\n", a.Name, a.ID)
	}
	return nil
}

func runAgentList(cmd *cobra.Command, args []string) error {
	agents, err := application.Agents.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents registered.")
		return nil
	}

	fmt.Fprintf(out, "%-36s %-16s %-8s %-6s %-8s %s\n", "ID", "NAME", "STATE", "EVERY", "RUNS", "NEXT RUN")
	fmt.Fprintln(out, strings.Repeat("-", 96))
	for _, a := range agents {
		state := defaultTheme.completedStyle().Render("enabled")
		if !a.Enabled {
			state = defaultTheme.hintStyle().Render("paused")
		}
		runs := fmt.Sprintf("%d/%d", a.SuccessCount, a.ExecutionCount)
		fmt.Fprintf(out, "%-36s %-16s %-8s %-6s %-8s %s\n",
			a.ID, truncate(a.Name, 16), state, fmt.Sprintf("%dm", a.IntervalMinutes), runs, formatOptTime(a.NextRun))
	}
	return nil
}

func runAgentShow(cmd *cobra.Command, args []string) error {
	agent, err := application.Agents.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printAgent(cmd.OutOrStdout(), agent)
	return nil
}

func setEnabled(cmd *cobra.Command, id string, enabled bool) error {
	if err := application.Agents.SetEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Agent %s %s\n", id, state)
	return nil
}

func printAgent(out io.Writer, a *models.Agent) {
	fmt.Fprintf(out, "Agent: %s\n", a.Name)
	fmt.Fprintf(out, "  ID: %s\n", a.ID)
	fmt.Fprintf(out, "  Request: %s %s\n", a.Method, a.URL)
	for _, k := range sortedKeys(a.QueryParams) {
		fmt.Fprintf(out, "  Query: %s=%s\n", k, a.QueryParams[k])
	}
	for _, k := range sortedKeys(a.Headers) {
		fmt.Fprintf(out, "  Header: %s: %s\n", k, a.Headers[k])
	}
	if a.BodyTemplate != "" {
		fmt.Fprintf(out, "  Body: %s\n", a.BodyTemplate)
	}
	if a.ExtractPath != "" {
		fmt.Fprintf(out, "  Extract: %s\n", a.ExtractPath)
	}
	if a.AuthMethod != "" && a.AuthMethod != models.AuthNone {
		fmt.Fprintf(out, "  Auth: %s\n", a.AuthMethod)
	}
	fmt.Fprintf(out, "  Interval: %dm\n", a.IntervalMinutes)
	fmt.Fprintf(out, "  Enabled: %t\n", a.Enabled)
	fmt.Fprintf(out, "  Runs: %d (ok %d, failed %d)\n", a.ExecutionCount, a.SuccessCount, a.FailureCount)
	fmt.Fprintf(out, "  Last run: %s\n", formatOptTime(a.LastRun))
	fmt.Fprintf(out, "  Next run: %s\n", formatOptTime(a.NextRun))
}

// parsePairs splits "key<sep>value" entries.
func parsePairs(items []string, sep string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, sep)
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid %q (expected key%svalue)", item, sep)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
