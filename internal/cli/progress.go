package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/scheduler"
)

// passStartedMsg carries the number of due agents.
type passStartedMsg struct {
	total int
}

// agentDoneMsg reports one finished agent.
type agentDoneMsg struct {
	agent models.Agent
	res   *runner.Result
	err   error
}

// passDoneMsg ends the pass.
type passDoneMsg struct {
	summary scheduler.PassSummary
	err     error
}

// programObserver forwards scheduler events into a running program.
// Send blocks until the program reads the message or exits.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) PassStarted(total int) {
	o.p.Send(passStartedMsg{total: total})
}

func (o programObserver) AgentDone(agent models.Agent, res *runner.Result, err error) {
	o.p.Send(agentDoneMsg{agent: agent, res: res, err: err})
}

// plainObserver prints one line per agent, for non-interactive output.
type plainObserver struct {
	out   io.Writer
	theme Theme
}

func (o plainObserver) PassStarted(total int) {
	fmt.Fprintf(o.out, "%d agents due\n", total)
}

func (o plainObserver) AgentDone(agent models.Agent, res *runner.Result, err error) {
	fmt.Fprintln(o.out, formatAgentDone(o.theme, agent, res, err))
}

// formatAgentDone renders the outcome of one agent as a single line.
func formatAgentDone(t Theme, agent models.Agent, res *runner.Result, err error) string {
	switch {
	case err != nil:
		return t.errorStyle().Render("✗ "+agent.Name) + " " + err.Error()
	case res.Execution.Status != models.ExecutionSuccess:
		return t.errorStyle().Render("✗ "+agent.Name) + " " + res.Execution.Error
	}
	detail := fmt.Sprintf("%dms, %d entities", res.Execution.LatencyMs, len(res.Entities))
	if n := len(res.Correlations); n > 0 {
		detail += fmt.Sprintf(", %d correlations", n)
	}
	return t.completedStyle().Render("✓ "+agent.Name) + " " + t.hintStyle().Render(detail)
}

// progressModel is the bubbletea model for one scheduler pass.
type progressModel struct {
	cancel   context.CancelFunc
	total    int
	done     int
	started  bool
	lines    []string
	summary  scheduler.PassSummary
	progress progress.Model
	theme    Theme
	finished bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model. cancel stops the pass when
// the user quits.
func newProgressModel(cancel context.CancelFunc) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case passStartedMsg:
		m.started = true
		m.total = msg.total
		return m, nil

	case agentDoneMsg:
		m.done++
		m.lines = append(m.lines, formatAgentDone(m.theme, msg.agent, msg.res, msg.err))
		return m, nil

	case passDoneMsg:
		m.finished = true
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line + "\n")
	}

	if m.finished || m.quitting {
		b.WriteString(m.finalView())
		return b.String()
	}

	if !m.started {
		b.WriteString("Looking for due agents...\n")
		return b.String()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	status := m.theme.statusStyle().Render("[running]")
	counts := fmt.Sprintf("%d/%d agents", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press q to stop after the current agent")
	fmt.Fprintf(&b, "%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
	return b.String()
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting && !m.finished {
		return m.theme.hintStyle().Render("\nStopping. Remaining agents stay due for the next pass.\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Pass failed: %s\n", m.err))
	}
	return summaryLine(m.theme, m.summary)
}

func summaryLine(t Theme, s scheduler.PassSummary) string {
	if s.Due == 0 {
		return t.hintStyle().Render("No agents due.") + "\n"
	}
	text := fmt.Sprintf("✓ Pass complete: %d due, %d succeeded, %d failed", s.Due, s.Succeeded, s.Failed)
	if s.Errored > 0 {
		text += fmt.Sprintf(", %d storage errors", s.Errored)
		return t.errorStyle().Render(text) + "\n"
	}
	return t.completedStyle().Render(text) + "\n"
}

// RunTickProgress runs one scheduler pass behind the interactive progress UI.
// Quitting cancels the pass after the agent in flight.
func RunTickProgress(ctx context.Context, sched *scheduler.Scheduler) (scheduler.PassSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel))

	type outcome struct {
		summary scheduler.PassSummary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := sched.RunDue(ctx, programObserver{p: p})
		p.Send(passDoneMsg{summary: summary, err: err})
		done <- outcome{summary, err}
	}()

	_, uiErr := p.Run()
	// The pass may still be in flight if the UI exited first.
	cancel()
	res := <-done
	if uiErr != nil {
		return res.summary, fmt.Errorf("progress UI error: %w", uiErr)
	}
	return res.summary, res.err
}
