package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/service"
	"github.com/raphaelgruber/agentwatch/internal/sqlite"
	"github.com/raphaelgruber/agentwatch/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger creates a logger for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// connect starts a server with all tools on in-memory transports and
// returns a connected client session.
func connect(t *testing.T) (*mcp.ClientSession, *tools.Dependencies, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	mc := metrics.NewCollector()
	st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "tools.db"), testLogger(), mc)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })

	r := runner.New(st, testLogger(), runner.Options{Version: "test", Metrics: mc})
	agents := service.NewAgentService(st, r, testLogger())
	deps := &tools.Dependencies{
		Agents:  agents,
		Jobs:    service.NewJobManager(agents, testLogger()),
		Metrics: mc,
		Logger:  testLogger(),
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "test-agentwatch", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() { _ = server.Run(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { session.Close() })

	return session, deps, ctx
}

// call invokes a tool and returns its text content.
func call(t *testing.T, ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text, result.IsError
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"email": "jane@example.com", "city": "Berlin"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func register(t *testing.T, ctx context.Context, session *mcp.ClientSession, url string) models.Agent {
	t.Helper()
	text, isErr := call(t, ctx, session, "register_agent", map[string]any{
		"name":             "contacts",
		"url":              url,
		"auth_method":      "bearer",
		"auth_secret":      "s3cret",
		"interval_minutes": 5,
	})
	require.False(t, isErr, text)

	var agent models.Agent
	require.NoError(t, json.Unmarshal([]byte(text), &agent))
	return agent
}

func TestToolsList(t *testing.T) {
	session, _, ctx := connect(t)

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"ping", "register_agent", "list_agents", "get_agent", "set_agent_enabled",
		"run_agent", "get_job", "list_executions", "list_entities", "list_correlations", "stats",
	}, names)
}

func TestPingTool(t *testing.T) {
	session, _, ctx := connect(t)

	text, isErr := call(t, ctx, session, "ping", map[string]any{})
	assert.False(t, isErr)
	assert.Equal(t, "pong", text)

	text, _ = call(t, ctx, session, "ping", map[string]any{"echo": "hello world"})
	assert.Equal(t, "hello world", text)
}

func TestRegisterAndGetAgent(t *testing.T) {
	session, _, ctx := connect(t)
	agent := register(t, ctx, session, "https://api.example.com/contacts")

	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, "GET", agent.Method)
	assert.True(t, agent.Enabled)
	assert.Equal(t, "***", agent.AuthSecret, "secret is masked")

	text, isErr := call(t, ctx, session, "get_agent", map[string]any{"id": agent.ID})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"name": "contacts"`)
	assert.NotContains(t, text, "s3cret")

	text, _ = call(t, ctx, session, "list_agents", map[string]any{})
	assert.Contains(t, text, agent.ID)
	assert.Contains(t, text, "every 5m")
}

func TestRegisterAgentValidation(t *testing.T) {
	session, _, ctx := connect(t)

	text, isErr := call(t, ctx, session, "register_agent", map[string]any{
		"name":             "bad",
		"url":              "/relative",
		"interval_minutes": 5,
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "absolute http(s) URL")
}

func TestGetAgentNotFound(t *testing.T) {
	session, _, ctx := connect(t)

	text, isErr := call(t, ctx, session, "get_agent", map[string]any{"id": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Agent not found")

	text, isErr = call(t, ctx, session, "get_agent", map[string]any{"id": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, "ID cannot be empty")
}

func TestSetAgentEnabled(t *testing.T) {
	session, deps, ctx := connect(t)
	agent := register(t, ctx, session, "https://api.example.com/contacts")

	text, isErr := call(t, ctx, session, "set_agent_enabled", map[string]any{"id": agent.ID, "enabled": false})
	require.False(t, isErr, text)
	assert.Contains(t, text, "disabled")

	got, err := deps.Agents.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestRunAgentWaitAndHistory(t *testing.T) {
	session, deps, ctx := connect(t)
	agent := register(t, ctx, session, upstream(t).URL)

	text, isErr := call(t, ctx, session, "run_agent", map[string]any{"id": agent.ID, "wait": true})
	require.False(t, isErr, text)
	assert.NotContains(t, text, "s3cret")

	var res runner.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, models.ExecutionSuccess, res.Execution.Status)
	assert.Equal(t, 1, res.Agent.SuccessCount)

	text, isErr = call(t, ctx, session, "list_executions", map[string]any{"agent_id": agent.ID})
	require.False(t, isErr, text)
	var execs []models.Execution
	require.NoError(t, json.Unmarshal([]byte(text), &execs))
	require.Len(t, execs, 1)

	text, isErr = call(t, ctx, session, "list_entities", map[string]any{"execution_id": execs[0].ID})
	require.False(t, isErr, text)
	var entities []models.Entity
	require.NoError(t, json.Unmarshal([]byte(text), &entities))
	assert.Len(t, entities, 2)

	text, _ = call(t, ctx, session, "stats", map[string]any{})
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snap))
	require.NotNil(t, snap.ExecutionSuccess)
	assert.Equal(t, int64(1), snap.ExecutionSuccess.Count)
	assert.Equal(t, deps.Metrics.Snapshot().EntitiesTagged, snap.EntitiesTagged)
	assert.NotNil(t, snap.StoreWrite, "sqlite writes are timed")
	assert.NotNil(t, snap.StoreQuery, "sqlite reads are timed")
}

func TestRunAgentJob(t *testing.T) {
	session, deps, ctx := connect(t)
	agent := register(t, ctx, session, upstream(t).URL)

	text, isErr := call(t, ctx, session, "run_agent", map[string]any{"id": agent.ID})
	require.False(t, isErr, text)

	var job service.Job
	require.NoError(t, json.Unmarshal([]byte(text), &job))
	require.NotEmpty(t, job.ID)

	started := deps.Jobs.GetJob(job.ID)
	require.NotNil(t, started)
	select {
	case <-started.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}

	text, isErr = call(t, ctx, session, "get_job", map[string]any{"id": job.ID})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"status": "completed"`)
	assert.NotContains(t, text, "s3cret")

	_, isErr = call(t, ctx, session, "get_job", map[string]any{"id": "nope"})
	assert.True(t, isErr)
}

func TestListCorrelationsAcrossAgents(t *testing.T) {
	session, _, ctx := connect(t)
	url := upstream(t).URL
	a := register(t, ctx, session, url)
	b := register(t, ctx, session, url)

	_, isErr := call(t, ctx, session, "run_agent", map[string]any{"id": a.ID, "wait": true})
	require.False(t, isErr)
	_, isErr = call(t, ctx, session, "run_agent", map[string]any{"id": b.ID, "wait": true})
	require.False(t, isErr)

	text, isErr := call(t, ctx, session, "list_correlations", map[string]any{"agent_id": a.ID})
	require.False(t, isErr, text)
	var correlations []models.Correlation
	require.NoError(t, json.Unmarshal([]byte(text), &correlations))
	require.NotEmpty(t, correlations)
	assert.Equal(t, b.ID, correlations[0].SourceAgentID)
	assert.Equal(t, a.ID, correlations[0].TargetAgentID)
}

func TestListLimits(t *testing.T) {
	session, _, ctx := connect(t)

	text, isErr := call(t, ctx, session, "list_correlations", map[string]any{"limit": 500})
	assert.True(t, isErr)
	assert.Contains(t, text, "Limit must be 1-100")

	text, isErr = call(t, ctx, session, "list_executions", map[string]any{"agent_id": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not found")
}
