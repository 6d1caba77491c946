package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// Agent management
	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_agent",
		Description: "Register an HTTP endpoint to poll on an interval. It runs on the next scheduler tick",
	}, NewRegisterAgentHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_agents",
		Description: "List registered agents with schedule state and run counters",
	}, NewListAgentsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_agent",
		Description: "Retrieve one agent by ID with full details",
	}, NewGetAgentHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_agent_enabled",
		Description: "Pause or resume scheduled polling of an agent",
	}, NewSetEnabledHandler(deps))

	// Manual runs
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_agent",
		Description: "Execute an agent now. Returns a job ID unless wait is true",
	}, NewRunAgentHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_job",
		Description: "Get the status and result of a run started by run_agent",
	}, NewGetJobHandler(deps))

	// History
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_executions",
		Description: "List an agent's execution records, newest first",
	}, NewListExecutionsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List semantic entities tagged in one execution",
	}, NewListEntitiesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_correlations",
		Description: "List correlations between agents that observed identical entities",
	}, NewListCorrelationsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Runtime statistics: execution latency per outcome, store timings, entity and correlation counts",
	}, NewStatsHandler(deps))
}
