// Package app wires configuration, storage and the execution engine together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/agentwatch/internal/config"
	"github.com/raphaelgruber/agentwatch/internal/db"
	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/scheduler"
	"github.com/raphaelgruber/agentwatch/internal/service"
	"github.com/raphaelgruber/agentwatch/internal/sqlite"
	"github.com/raphaelgruber/agentwatch/internal/store"
)

// App holds the long-lived components shared by the CLI and the MCP server.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Store     store.Store
	Metrics   *metrics.Collector
	Runner    *runner.Runner
	Scheduler *scheduler.Scheduler
	Agents    *service.AgentService
	Jobs      *service.JobManager
}

// New opens the configured store and builds the engine on top of it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, version string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mc := metrics.NewCollector()

	st, err := OpenStore(ctx, cfg, logger, mc)
	if err != nil {
		return nil, err
	}

	r := runner.New(st, logger, runner.Options{
		Version:    version,
		Timeout:    cfg.HTTPTimeout,
		SampleSize: cfg.CorrelationSample,
		Metrics:    mc,
	})
	agents := service.NewAgentService(st, r, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Metrics:   mc,
		Runner:    r,
		Scheduler: scheduler.New(st, r, logger, scheduler.Options{Tick: cfg.TickInterval, Metrics: mc}),
		Agents:    agents,
		Jobs:      service.NewJobManager(agents, logger),
	}, nil
}

// OpenStore connects the backend named by cfg.Store.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger, mc *metrics.Collector) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite, "":
		logger.Debug("opening store", "backend", config.StoreSQLite, "path", cfg.SQLitePath)
		return sqlite.Open(ctx, cfg.SQLitePath, logger, mc)
	case config.StoreSurrealDB:
		logger.Debug("opening store", "backend", config.StoreSurrealDB, "url", cfg.SurrealDBURL)
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger, mc)
		if err != nil {
			return nil, fmt.Errorf("connect surrealdb: %w", err)
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("init schema: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown store %q (want %s or %s)", cfg.Store, config.StoreSQLite, config.StoreSurrealDB)
}

// Close stops the scheduler if running and releases the store.
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler.Running() {
		a.Scheduler.Stop()
	}
	return a.Store.Close(ctx)
}
