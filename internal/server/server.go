// Package server provides the MCP server wrapper with lifecycle management.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
)

// Name is reported to clients during initialize.
const Name = "agentwatch"

const instructions = `agentwatch polls registered HTTP endpoints ("agents") on an interval,
tags semantic entities in their JSON responses and correlates agents that
observed the same entities. Register endpoints with register_agent, trigger
runs with run_agent, and inspect results with list_executions, list_entities
and list_correlations.`

// Server wraps the MCP server with dependencies and lifecycle management.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates a new MCP server with the given version and logger.
func New(version string, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions})

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// Run starts the server on stdio transport and blocks until disconnect or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves a single session on t.
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("starting MCP server", "transport", transportName(t))
	return s.mcp.Run(ctx, t)
}

// MCPServer returns the underlying MCP server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Setup adds middleware to the server (tracing, logging).
func (s *Server) Setup() {
	s.mcp.AddReceivingMiddleware(
		TracingMiddleware(otel.Tracer("github.com/raphaelgruber/agentwatch/internal/server")),
		LoggingMiddleware(s.logger),
	)
}

func transportName(t mcp.Transport) string {
	switch t.(type) {
	case *mcp.StdioTransport:
		return "stdio"
	case *mcp.InMemoryTransport:
		return "memory"
	}
	return "custom"
}
