package server_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/agentwatch/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// start runs srv over in-memory transports and returns a connected session.
// The returned channel yields the server's exit error.
func start(t *testing.T, srv *server.Server) (*mcp.ClientSession, context.Context, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	st, ct := mcp.NewInMemoryTransports()
	done := make(chan error, 1)
	go func() { done <- srv.RunTransport(ctx, st) }()

	session, err := mcp.NewClient(&mcp.Implementation{Name: "agentwatch-test", Version: "0"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	return session, ctx, cancel, done
}

func TestNew(t *testing.T) {
	srv := server.New("test-version", quietLogger())
	require.NotNil(t, srv)
	require.NotNil(t, srv.MCPServer())
}

func TestServer_Handshake(t *testing.T) {
	srv := server.New("0.1.0-test", quietLogger())
	srv.Setup()

	session, ctx, cancel, done := start(t, srv)

	info := session.InitializeResult()
	require.NotNil(t, info)
	assert.Equal(t, server.Name, info.ServerInfo.Name)
	assert.Equal(t, "0.1.0-test", info.ServerInfo.Version)
	assert.Contains(t, info.Instructions, "register_agent")

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tools.Tools, "tools are registered by the caller")

	require.NoError(t, session.Close())
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Logf("server stopped: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("server did not stop after cancel")
	}
}

func TestServer_ToolsPassThroughMiddleware(t *testing.T) {
	srv := server.New("0", quietLogger())
	srv.Setup()

	type input struct {
		Agent string `json:"agent"`
	}
	mcp.AddTool(srv.MCPServer(), &mcp.Tool{Name: "probe"}, func(ctx context.Context, req *mcp.CallToolRequest, in input) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "probed " + in.Agent}}}, nil, nil
	})

	session, ctx, _, _ := start(t, srv)
	t.Cleanup(func() { session.Close() })

	for i := 0; i < 3; i++ {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "probe", Arguments: map[string]any{"agent": "crm"}})
		require.NoError(t, err, "call %d", i)
		require.Len(t, res.Content, 1)
		assert.Equal(t, "probed crm", res.Content[0].(*mcp.TextContent).Text)
	}
}
