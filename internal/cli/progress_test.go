package cli

import (
	"errors"
	"testing"

	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressModel(t *testing.T) {
	m := newProgressModel(nil)
	assert.Contains(t, m.renderContent(), "Looking for due agents")

	next, _ := m.Update(passStartedMsg{total: 2})
	m = next.(progressModel)
	assert.Contains(t, m.renderContent(), "0/2 agents")

	ok := &runner.Result{
		Execution: models.Execution{Status: models.ExecutionSuccess, LatencyMs: 12},
		Entities:  []models.Entity{{Type: models.EntityEmail}},
	}
	next, _ = m.Update(agentDoneMsg{agent: models.Agent{Name: "crm"}, res: ok})
	m = next.(progressModel)
	out := m.renderContent()
	assert.Contains(t, out, "1/2 agents")
	assert.Contains(t, out, "✓ crm")
	assert.Contains(t, out, "12ms, 1 entities")

	next, _ = m.Update(agentDoneMsg{agent: models.Agent{Name: "billing"}, err: errors.New("disk full")})
	m = next.(progressModel)

	next, cmd := m.Update(passDoneMsg{summary: scheduler.PassSummary{Due: 2, Succeeded: 1, Errored: 1}})
	m = next.(progressModel)
	require.NotNil(t, cmd, "pass end quits the program")
	assert.True(t, m.finished)
	out = m.renderContent()
	assert.Contains(t, out, "✗ billing disk full")
	assert.Contains(t, out, "2 due, 1 succeeded, 0 failed, 1 storage errors")
}

func TestFormatAgentDone(t *testing.T) {
	agent := models.Agent{Name: "w"}

	failed := &runner.Result{Execution: models.Execution{Status: models.ExecutionError, Error: "HTTP 500: Internal Server Error"}}
	assert.Contains(t, formatAgentDone(defaultTheme, agent, failed, nil), "✗ w HTTP 500")

	correlated := &runner.Result{
		Execution:    models.Execution{Status: models.ExecutionSuccess, LatencyMs: 3},
		Correlations: []models.Correlation{{}},
	}
	assert.Contains(t, formatAgentDone(defaultTheme, agent, correlated, nil), "3ms, 0 entities, 1 correlations")
}

func TestSummaryLine(t *testing.T) {
	assert.Contains(t, summaryLine(defaultTheme, scheduler.PassSummary{}), "No agents due.")
	assert.Contains(t, summaryLine(defaultTheme, scheduler.PassSummary{Due: 1, Succeeded: 1}), "1 due, 1 succeeded, 0 failed")
}
