package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/agentwatch/internal/config"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/service"
	"github.com/raphaelgruber/agentwatch/internal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")}

	a, err := New(ctx, cfg, quietLogger(), "test")
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.IsType(t, &sqlite.Store{}, a.Store)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"city": "Berlin"}`)
	}))
	defer srv.Close()

	agent, err := a.Agents.Register(ctx, service.AgentInput{Name: "w", URL: srv.URL, IntervalMinutes: 1})
	require.NoError(t, err)

	summary, err := a.Scheduler.RunDue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Due)
	assert.Equal(t, 1, summary.Succeeded)

	execs, err := a.Agents.Executions(ctx, agent.ID, 0)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionSuccess, execs[0].Status)
	assert.Equal(t, int64(1), a.Metrics.Snapshot().EntitiesTagged)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Config{Store: "mongo"}, quietLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestClose_StopsScheduler(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")}

	a, err := New(ctx, cfg, quietLogger(), "test")
	require.NoError(t, err)
	require.NoError(t, a.Scheduler.Start(ctx))
	require.True(t, a.Scheduler.Running())

	require.NoError(t, a.Close(ctx))
	assert.False(t, a.Scheduler.Running())
}
