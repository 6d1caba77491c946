package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxParamsLen  = 200
	slowThreshold = 100 * time.Millisecond
)

// LoggingMiddleware logs every request with its duration. Failures log at
// ERROR, tool results flagged as errors and slow requests at WARN, the rest
// at DEBUG.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := requestAttrs(method, req, elapsed)
			switch {
			case err != nil:
				logger.Error("request failed", append(attrs, "error", err.Error())...)
			case isToolError(result):
				logger.Warn("tool error", attrs...)
			case elapsed > slowThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}
			return result, err
		}
	}
}

func requestAttrs(method string, req mcp.Request, elapsed time.Duration) []any {
	attrs := []any{"method", method, "duration_ms", elapsed.Milliseconds()}
	if name := toolName(req); name != "" {
		attrs = append(attrs, "tool", name)
	}
	if params := req.GetParams(); params != nil {
		attrs = append(attrs, "params", truncate(fmt.Sprintf("%+v", params), maxParamsLen))
	}
	return attrs
}

func toolName(req mcp.Request) string {
	if p, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok {
		return p.Name
	}
	return ""
}

// TracingMiddleware wraps each request in a span named after the MCP method.
// Tool calls carry the tool name; tool-level errors mark the span as failed.
func TracingMiddleware(tracer trace.Tracer) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			ctx, span := tracer.Start(ctx, "mcp "+method, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			span.SetAttributes(attribute.String("mcp.method", method))
			if name := toolName(req); name != "" {
				span.SetAttributes(attribute.String("mcp.tool", name))
			}

			result, err := next(ctx, method, req)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case isToolError(result):
				span.SetStatus(codes.Error, "tool error")
			}
			return result, err
		}
	}
}

func isToolError(r mcp.Result) bool {
	res, ok := r.(*mcp.CallToolResult)
	return ok && res != nil && res.IsError
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
