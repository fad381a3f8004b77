package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one MCP tool call for the audit trail.
//
// UserEmail is PII. LogAttrs only emits its domain; LogAuditAttrs emits the
// full address and belongs in access-controlled log streams.
type ToolInvocation struct {
	Tool      string
	UserID    string
	UserEmail string
	TaskID    string
	ReadOnly  bool

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser sets the caller identity.
func (ti *ToolInvocation) WithUser(userID, email string) *ToolInvocation {
	ti.UserID = userID
	ti.UserEmail = email
	return ti
}

// WithTask sets the task the tool acted on.
func (ti *ToolInvocation) WithTask(taskID string) *ToolInvocation {
	ti.TaskID = taskID
	return ti
}

// WithSpanContext copies the trace context of the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete records the outcome and the elapsed time.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// UserDomain returns the domain of the caller's email.
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.UserEmail)
}

// Status returns "success" or "error".
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns attributes with cardinality-controlled identity fields.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user_domain", ti.UserDomain()),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	return ti.appendOptional(attrs, false)
}

// LogAuditAttrs returns attributes including the full email address.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user", ti.UserEmail),
		slog.String("user_id", ti.UserID),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	return ti.appendOptional(attrs, true)
}

func (ti *ToolInvocation) appendOptional(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if ti.TaskID != "" {
		attrs = append(attrs, slog.String("task_id", ti.TaskID))
	}
	if ti.ReadOnly {
		attrs = append(attrs, slog.Bool("read_only", true))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuthEvent is a register, login or token rejection for the audit trail.
type AuthEvent struct {
	Operation string
	Email     string
	UserID    string
	Success   bool
	Reason    string
	RemoteIP  string
}

// AuditLogger writes tool invocations and auth events as structured log
// records. A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes users.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("log_type", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether full email addresses are logged.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// LogToolInvocation logs a tool invocation, with or without PII depending
// on configuration.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogAuthEvent logs an authentication outcome.
func (al *AuditLogger) LogAuthEvent(ev AuthEvent) {
	if al == nil || !al.enabled {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", ev.Operation),
		slog.Bool("success", ev.Success),
	}
	if al.includePII {
		attrs = append(attrs, slog.String("user", ev.Email))
	} else {
		attrs = append(attrs, slog.String("user_domain", ExtractUserDomain(ev.Email)))
	}
	if ev.UserID != "" {
		attrs = append(attrs, slog.String("user_id", ev.UserID))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	if ev.RemoteIP != "" {
		attrs = append(attrs, slog.String("remote_ip", ev.RemoteIP))
	}

	level := slog.LevelInfo
	if !ev.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "auth_event", attrs...)
}
