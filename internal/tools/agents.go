package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/agentwatch/internal/models"
	"github.com/raphaelgruber/agentwatch/internal/runner"
	"github.com/raphaelgruber/agentwatch/internal/service"
)

// RegisterAgentInput defines the input schema for the register_agent tool.
type RegisterAgentInput struct {
	Name            string            `json:"name" jsonschema:"required,Display name"`
	URL             string            `json:"url" jsonschema:"required,Absolute http(s) endpoint URL"`
	Method          string            `json:"method,omitempty" jsonschema:"HTTP method, default GET"`
	Headers         map[string]string `json:"headers,omitempty" jsonschema:"Custom request headers, override defaults and auth"`
	QueryParams     map[string]string `json:"query_params,omitempty" jsonschema:"Query parameters merged into the URL"`
	BodyTemplate    string            `json:"body_template,omitempty" jsonschema:"Request body, sent for methods other than GET/HEAD/DELETE/OPTIONS"`
	ExtractPath     string            `json:"extract_path,omitempty" jsonschema:"Dotted path into the response, e.g. $.data.items"`
	AuthMethod      string            `json:"auth_method,omitempty" jsonschema:"none, bearer, api_key, or basic"`
	AuthSecret      string            `json:"auth_secret,omitempty" jsonschema:"Token, key, or user:password for basic"`
	IntervalMinutes int               `json:"interval_minutes" jsonschema:"required,Polling interval in minutes (>= 1)"`
	Enabled         *bool             `json:"enabled,omitempty" jsonschema:"Schedule immediately, default true"`
}

// AgentIDInput selects one agent.
type AgentIDInput struct {
	ID string `json:"id" jsonschema:"required,Agent ID"`
}

// SetEnabledInput defines the input schema for the set_agent_enabled tool.
type SetEnabledInput struct {
	ID      string `json:"id" jsonschema:"required,Agent ID"`
	Enabled bool   `json:"enabled" jsonschema:"true to schedule, false to pause"`
}

// ListAgentsInput has no parameters.
type ListAgentsInput struct{}

// agentView hides the auth secret.
type agentView struct {
	models.Agent
	AuthSecret string `json:"auth_secret,omitempty"`
}

func redact(a models.Agent) agentView {
	v := agentView{Agent: a}
	if a.AuthSecret != "" {
		v.AuthSecret = "***"
	}
	return v
}

// redactResult copies res with the agent secret masked.
func redactResult(res *runner.Result) *runner.Result {
	if res == nil || res.Agent.AuthSecret == "" {
		return res
	}
	out := *res
	out.Agent.AuthSecret = "***"
	return &out
}

// NewRegisterAgentHandler validates and stores a new agent.
func NewRegisterAgentHandler(deps *Dependencies) mcp.ToolHandlerFor[RegisterAgentInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RegisterAgentInput) (*mcp.CallToolResult, any, error) {
		agent, err := deps.Agents.Register(ctx, service.AgentInput{
			Name:            input.Name,
			URL:             input.URL,
			Method:          input.Method,
			Headers:         input.Headers,
			QueryParams:     input.QueryParams,
			BodyTemplate:    input.BodyTemplate,
			ExtractPath:     input.ExtractPath,
			AuthMethod:      models.AuthMethod(input.AuthMethod),
			AuthSecret:      input.AuthSecret,
			IntervalMinutes: input.IntervalMinutes,
			Enabled:         input.Enabled,
		})
		if errors.Is(err, service.ErrInvalidAgent) {
			return ErrorResult(err.Error(), "Fix the field and retry"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("register_agent failed", "error", err)
			return ErrorResult("Failed to register agent", "Store may be unavailable"), nil, nil
		}
		return JSONResult(redact(*agent)), nil, nil
	}
}

// NewListAgentsHandler lists all agents with their counters.
func NewListAgentsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListAgentsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListAgentsInput) (*mcp.CallToolResult, any, error) {
		agents, err := deps.Agents.List(ctx)
		if err != nil {
			deps.Logger.Error("list_agents failed", "error", err)
			return ErrorResult("Failed to list agents", "Store may be unavailable"), nil, nil
		}
		if len(agents) == 0 {
			return TextResult("No agents registered"), nil, nil
		}

		lines := make([]string, 0, len(agents))
		for _, a := range agents {
			state := "enabled"
			if !a.Enabled {
				state = "disabled"
			}
			lines = append(lines, fmt.Sprintf("%s  %s  %s %s  every %dm  %s  runs=%d ok=%d failed=%d",
				a.ID, a.Name, a.Method, a.URL, a.IntervalMinutes, state, a.ExecutionCount, a.SuccessCount, a.FailureCount))
		}
		return TextResult(FormatResults(lines)), nil, nil
	}
}

// NewGetAgentHandler returns one agent as JSON.
func NewGetAgentHandler(deps *Dependencies) mcp.ToolHandlerFor[AgentIDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AgentIDInput) (*mcp.CallToolResult, any, error) {
		if input.ID == "" {
			return ErrorResult("ID cannot be empty", "Provide an agent ID"), nil, nil
		}
		agent, err := deps.Agents.Get(ctx, input.ID)
		if err != nil {
			return storeError(err, "Agent"), nil, nil
		}
		return JSONResult(redact(*agent)), nil, nil
	}
}

// NewSetEnabledHandler pauses or resumes an agent.
func NewSetEnabledHandler(deps *Dependencies) mcp.ToolHandlerFor[SetEnabledInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SetEnabledInput) (*mcp.CallToolResult, any, error) {
		if input.ID == "" {
			return ErrorResult("ID cannot be empty", "Provide an agent ID"), nil, nil
		}
		if err := deps.Agents.SetEnabled(ctx, input.ID, input.Enabled); err != nil {
			return storeError(err, "Agent"), nil, nil
		}
		if input.Enabled {
			return TextResult("Agent " + input.ID + " enabled"), nil, nil
		}
		return TextResult("Agent " + input.ID + " disabled"), nil, nil
	}
}
