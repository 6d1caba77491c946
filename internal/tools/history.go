package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListExecutionsInput defines the input schema for the list_executions tool.
type ListExecutionsInput struct {
	AgentID string `json:"agent_id" jsonschema:"required,Agent ID"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max results 1-100, default 20"`
}

// ListEntitiesInput defines the input schema for the list_entities tool.
type ListEntitiesInput struct {
	ExecutionID string `json:"execution_id" jsonschema:"required,Execution ID"`
}

// ListCorrelationsInput defines the input schema for the list_correlations tool.
type ListCorrelationsInput struct {
	AgentID string `json:"agent_id,omitempty" jsonschema:"Only correlations touching this agent; all when empty"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max results 1-100, default 20"`
}

// NewListExecutionsHandler returns an agent's executions, newest first.
func NewListExecutionsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListExecutionsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListExecutionsInput) (*mcp.CallToolResult, any, error) {
		limit, ok := clampLimit(input.Limit)
		if !ok {
			return ErrorResult("Limit must be 1-100", "Reduce limit value"), nil, nil
		}
		execs, err := deps.Agents.Executions(ctx, input.AgentID, limit)
		if err != nil {
			return storeError(err, "Agent"), nil, nil
		}
		return JSONResult(execs), nil, nil
	}
}

// NewListEntitiesHandler returns the entities tagged in one execution.
func NewListEntitiesHandler(deps *Dependencies) mcp.ToolHandlerFor[ListEntitiesInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListEntitiesInput) (*mcp.CallToolResult, any, error) {
		if input.ExecutionID == "" {
			return ErrorResult("execution_id cannot be empty", "Use list_executions to find IDs"), nil, nil
		}
		entities, err := deps.Agents.Entities(ctx, input.ExecutionID)
		if err != nil {
			return storeError(err, "Entities"), nil, nil
		}
		return JSONResult(entities), nil, nil
	}
}

// NewListCorrelationsHandler returns correlations, newest first.
func NewListCorrelationsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListCorrelationsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListCorrelationsInput) (*mcp.CallToolResult, any, error) {
		limit, ok := clampLimit(input.Limit)
		if !ok {
			return ErrorResult("Limit must be 1-100", "Reduce limit value"), nil, nil
		}
		correlations, err := deps.Agents.Correlations(ctx, input.AgentID, limit)
		if err != nil {
			return storeError(err, "Correlations"), nil, nil
		}
		return JSONResult(correlations), nil, nil
	}
}
