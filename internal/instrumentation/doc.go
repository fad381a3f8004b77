// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the taskcal server.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: requests by method, route pattern and status
//   - http_request_duration_seconds: request latency
//   - http_rate_limited_total: requests rejected by the per-client limiter
//   - active_sessions: open MCP sessions
//
// Store:
//   - store_operations_total: database operations by operation and status
//   - store_operation_duration_seconds: database latency
//
// Domain:
//   - auth_attempts_total: register, login and token checks by result
//   - notifications_created_total: notifications by kind
//   - calendar_items_excluded_total: tasks without a usable due date, by reason
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for API requests (server), MCP tool invocations
// (tool.<name>), database statements (store.<operation>) and reminder runs.
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME,
// METRICS_DETAILED_LABELS and the AUDIT_LOGGING_* variables.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordStoreOperation(ctx, "tasks.create", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
