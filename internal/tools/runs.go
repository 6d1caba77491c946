package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/agentwatch/internal/service"
)

// RunAgentInput defines the input schema for the run_agent tool.
type RunAgentInput struct {
	ID   string `json:"id" jsonschema:"required,Agent ID"`
	Wait bool   `json:"wait,omitempty" jsonschema:"Block until the execution finishes instead of returning a job ID"`
}

// GetJobInput defines the input schema for the get_job tool.
type GetJobInput struct {
	ID string `json:"id" jsonschema:"required,Job ID returned by run_agent"`
}

// NewRunAgentHandler starts a manual run in the background, or runs
// synchronously when wait is set.
func NewRunAgentHandler(deps *Dependencies) mcp.ToolHandlerFor[RunAgentInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RunAgentInput) (*mcp.CallToolResult, any, error) {
		if input.ID == "" {
			return ErrorResult("ID cannot be empty", "Provide an agent ID"), nil, nil
		}

		if input.Wait {
			res, err := deps.Agents.RunNow(ctx, input.ID)
			if err != nil {
				deps.Logger.Error("run_agent failed", "agent_id", input.ID, "error", err)
				return storeError(err, "Agent"), nil, nil
			}
			return JSONResult(redactResult(res)), nil, nil
		}

		job, err := deps.Jobs.Start(ctx, input.ID)
		if err != nil {
			return storeError(err, "Agent"), nil, nil
		}
		return jobResult(job), nil, nil
	}
}

// NewGetJobHandler reports a manual run's status.
func NewGetJobHandler(deps *Dependencies) mcp.ToolHandlerFor[GetJobInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetJobInput) (*mcp.CallToolResult, any, error) {
		job := deps.Jobs.GetJob(input.ID)
		if job == nil {
			return ErrorResult("Job not found", "Jobs are kept in memory until restart"), nil, nil
		}
		return jobResult(job), nil, nil
	}
}

func jobResult(job *service.Job) *mcp.CallToolResult {
	snap := job.Snapshot()
	snap.Result = redactResult(snap.Result)
	return JSONResult(&snap)
}
