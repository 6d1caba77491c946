package tools

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/agentwatch/internal/store"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so LLM can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", "")
	}
	return TextResult(string(b))
}

// FormatResults joins items with newlines for list output.
func FormatResults(items []string) string {
	return strings.Join(items, "\n")
}

// storeError maps lookup failures to a tool error.
func storeError(err error, what string) *mcp.CallToolResult {
	if errors.Is(err, store.ErrNotFound) {
		return ErrorResult(what+" not found", "Use list_agents to find valid IDs")
	}
	return ErrorResult("Failed to load "+what, "Store may be unavailable")
}

// defaultLimit and maxLimit bound list tools.
const (
	defaultLimit = 20
	maxLimit     = 100
)

// clampLimit applies defaults; ok is false when limit exceeds maxLimit.
func clampLimit(limit int) (int, bool) {
	if limit <= 0 {
		return defaultLimit, true
	}
	return limit, limit <= maxLimit
}
