// Command agentwatch-mcp serves the engine as MCP tools over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/agentwatch/internal/app"
	"github.com/raphaelgruber/agentwatch/internal/config"
	"github.com/raphaelgruber/agentwatch/internal/server"
	"github.com/raphaelgruber/agentwatch/internal/telemetry"
	"github.com/raphaelgruber/agentwatch/internal/tools"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("agentwatch-mcp starting",
		"version", version,
		"store", cfg.Store,
		"scheduler", cfg.MCPScheduler,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Spans go to stderr; stdout carries the protocol
	shutdownTracing, err := telemetry.Setup(cfg.Trace, "agentwatch-mcp", version, os.Stderr)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	a, err := app.New(ctx, cfg, logger, version)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return 1
	}
	defer func() {
		logger.Info("closing store")
		_ = a.Close(context.Background())
	}()

	if cfg.MCPScheduler {
		if err := a.Scheduler.Start(ctx); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			return 1
		}
	}

	srv := server.New(version, logger)
	srv.Setup()

	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Agents:  a.Agents,
		Jobs:    a.Jobs,
		Metrics: a.Metrics,
		Logger:  logger,
	})

	logger.Info("serving on stdio")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}
