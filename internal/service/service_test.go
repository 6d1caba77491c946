package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/sqlite"
	"github.com/raphaelgruber/agentwatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newService(t *testing.T) (*AgentService, context.Context) {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "service.db"), testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(ctx) })

	r := runner.New(st, testLogger(), runner.Options{Version: "test"})
	return NewAgentService(st, r, testLogger()), ctx
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"email": "jane@example.com"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidate(t *testing.T) {
	valid := func() AgentInput {
		return AgentInput{Name: "weather", URL: "https://api.example.com/w", IntervalMinutes: 5}
	}

	tests := []struct {
		name    string
		mutate  func(*AgentInput)
		wantErr string
	}{
		{"ok", func(in *AgentInput) {}, ""},
		{"missing name", func(in *AgentInput) { in.Name = "  " }, "name is required"},
		{"relative url", func(in *AgentInput) { in.URL = "/w" }, "absolute http(s) URL"},
		{"ftp url", func(in *AgentInput) { in.URL = "ftp://host/x" }, "absolute http(s) URL"},
		{"bad method", func(in *AgentInput) { in.Method = "BREW" }, "unsupported method"},
		{"zero interval", func(in *AgentInput) { in.IntervalMinutes = 0 }, "at least 1"},
		{"unknown auth", func(in *AgentInput) { in.AuthMethod = "oauth" }, "unknown auth method"},
		{"auth without secret", func(in *AgentInput) { in.AuthMethod = models.AuthBearer }, "needs a secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := Validate(&in)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "GET", in.Method)
				assert.Equal(t, models.AuthNone, in.AuthMethod)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAgent)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegister(t *testing.T) {
	svc, ctx := newService(t)

	agent, err := svc.Register(ctx, AgentInput{Name: "weather", URL: "https://api.example.com", Method: "post", IntervalMinutes: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, "POST", agent.Method)
	assert.True(t, agent.Enabled, "enabled by default")
	assert.Nil(t, agent.NextRun, "due immediately")

	disabled := false
	paused, err := svc.Register(ctx, AgentInput{Name: "paused", URL: "http://x.test", IntervalMinutes: 1, Enabled: &disabled})
	require.NoError(t, err)
	assert.False(t, paused.Enabled)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.Register(ctx, AgentInput{Name: "bad", URL: "nope", IntervalMinutes: 1})
	assert.ErrorIs(t, err, ErrInvalidAgent)
}

func TestImport(t *testing.T) {
	svc, ctx := newService(t)

	doc := `
agents:
  - name: weather
    url: https://api.example.com/weather
    interval_minutes: 10
    extract_path: $.current
    query_params:
      city: Berlin
  - name: crm
    url: https://crm.example.com/contacts
    method: post
    body_template: '{"limit": 5}'
    auth_method: bearer
    auth_secret: s3cret
    interval_minutes: 30
    enabled: false
`
	agents, err := svc.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, agents, 2)

	assert.Equal(t, "$.current", agents[0].ExtractPath)
	assert.Equal(t, map[string]string{"city": "Berlin"}, agents[0].QueryParams)
	assert.True(t, agents[0].Enabled)
	assert.Equal(t, models.AuthBearer, agents[1].AuthMethod)
	assert.Equal(t, "POST", agents[1].Method)
	assert.False(t, agents[1].Enabled)
}

func TestImport_AllOrNothing(t *testing.T) {
	svc, ctx := newService(t)

	doc := `
agents:
  - name: good
    url: https://api.example.com
    interval_minutes: 1
  - name: bad
    url: https://api.example.com
    interval_minutes: 0
`
	_, err := svc.Import(ctx, strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalidAgent)
	assert.ErrorContains(t, err, "agent 2")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Import(ctx, strings.NewReader("agents: []"))
	assert.ErrorIs(t, err, ErrInvalidAgent)
}

func TestRunNowAndHistory(t *testing.T) {
	svc, ctx := newService(t)
	srv := upstream(t)

	agent, err := svc.Register(ctx, AgentInput{Name: "crm", URL: srv.URL, IntervalMinutes: 1})
	require.NoError(t, err)
	require.NoError(t, svc.SetEnabled(ctx, agent.ID, false))

	res, err := svc.RunNow(ctx, agent.ID)
	require.NoError(t, err, "disabled agents can still be run manually")
	assert.Equal(t, models.ExecutionSuccess, res.Execution.Status)

	execs, err := svc.Executions(ctx, agent.ID, 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)

	entities, err := svc.Entities(ctx, execs[0].ID)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "email:jane@example.com", entities[0].Key())

	_, err = svc.RunNow(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Executions(ctx, "missing", 10)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobManager(t *testing.T) {
	svc, ctx := newService(t)
	srv := upstream(t)
	agent, err := svc.Register(ctx, AgentInput{Name: "crm", URL: srv.URL, IntervalMinutes: 1})
	require.NoError(t, err)

	jobs := NewJobManager(svc, testLogger())

	runCtx, cancel := context.WithCancel(ctx)
	job, err := jobs.Start(runCtx, agent.ID)
	require.NoError(t, err)
	cancel()
	assert.Len(t, job.ID, 8)

	select {
	case <-job.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("job did not finish")
	}

	snap := jobs.GetJob(job.ID).Snapshot()
	assert.Equal(t, JobStatusCompleted, snap.Status, "run survives caller cancellation")
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.ExecutionSuccess, snap.Result.Execution.Status)
	assert.NotNil(t, snap.CompletedAt)
	assert.Len(t, jobs.ListJobs(), 1)

	_, err = jobs.Start(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, jobs.GetJob("nope"))
}

type failingExecutor struct{}

func (failingExecutor) Execute(ctx context.Context, agent *models.Agent) (*runner.Result, error) {
	return nil, errors.New("persist execution: disk full")
}

func TestJobManager_Failure(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "jobs.db"), testLogger(), nil)
	require.NoError(t, err)
	defer st.Close(ctx)

	svc := NewAgentService(st, failingExecutor{}, testLogger())
	agent, err := svc.Register(ctx, AgentInput{Name: "a", URL: "http://a.test", IntervalMinutes: 1})
	require.NoError(t, err)

	job, err := NewJobManager(svc, testLogger()).Start(ctx, agent.ID)
	require.NoError(t, err)
	<-job.Done()

	snap := job.Snapshot()
	assert.Equal(t, JobStatusFailed, snap.Status)
	assert.Equal(t, "persist execution: disk full", snap.Error)
}
