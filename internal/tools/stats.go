package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatsInput has no parameters.
type StatsInput struct{}

// NewStatsHandler reports runtime statistics.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(deps.Metrics.Snapshot()), nil, nil
	}
}
