package common

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/server"
)

// ToolHandler is the handler signature expected by MCPServer.AddTool.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and an
// audit record.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	logger := logging.WithTool(sc.Logger(), toolName)

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.Bool(instrumentation.SpanAttrReadOnly, sc.ReadOnly()))

		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		invocation.ReadOnly = sc.ReadOnly()
		if p, ok := sc.PrincipalFromContext(ctx); ok {
			invocation.WithUser(p.UserID, p.Email)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrUserID, p.UserID))
		}
		if id, ok := request.GetArguments()["id"].(string); ok && id != "" {
			invocation.WithTask(id)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrTaskID, id))
		}

		result, err := handler(ctx, request)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = resultError(result)
		}
		invocation.Complete(failure == nil, failure)
		instrumentation.EndSpan(span, failure)

		sc.Metrics().RecordToolInvocationWithUser(ctx, toolName, invocation.Status(), invocation.UserEmail, invocation.Duration)
		sc.AuditLogger().LogToolInvocation(invocation)
		logger.DebugContext(ctx, "tool invoked",
			logging.Status(invocation.Status()),
			logging.Duration(invocation.Duration),
			slog.String("task_id", invocation.TaskID))

		return result, err
	}
}

// resultError extracts the message of an error result.
func resultError(result *mcp.CallToolResult) error {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok && text.Text != "" {
			return errors.New(text.Text)
		}
	}
	return errors.New("tool returned an error")
}
