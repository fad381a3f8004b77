// Package tooltest builds a real service stack on a temporary database for
// MCP tool tests.
package tooltest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/store"
	"github.com/teemow/taskcal/internal/tasks"
)

// Env is a server context with one registered user.
type Env struct {
	SC        *server.ServerContext
	Tasks     *tasks.Service
	Notify    *notify.Service
	Principal auth.Principal
	Server    *mcpserver.MCPServer
}

// Options tune New.
type Options struct {
	ReadOnly bool
	// Anonymous leaves the default principal unset.
	Anonymous bool
	// Now fixes the task clock.
	Now time.Time
}

// New opens a store under t.TempDir and registers user@example.com as the
// default principal.
func New(t *testing.T, opts Options) *Env {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{Path: filepath.Join(t.TempDir(), "tools.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authSvc, err := auth.NewService(st, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), BcryptCost: 4})
	require.NoError(t, err)
	user, err := authSvc.Register(ctx, "user@example.com", "User", "correct horse battery")
	require.NoError(t, err)
	p := auth.Principal{UserID: user.ID, Email: user.Email}

	notifier := notify.NewService(st)
	taskOpts := []tasks.Option{tasks.WithEventSink(notifier)}
	if !opts.Now.IsZero() {
		now := opts.Now
		taskOpts = append(taskOpts, tasks.WithClock(func() time.Time { return now }))
	}
	taskSvc := tasks.NewService(st, taskOpts...)

	cfg := server.ServerContextConfig{
		Auth:     authSvc,
		Tasks:    taskSvc,
		Notify:   notifier,
		ReadOnly: opts.ReadOnly,
	}
	if !opts.Anonymous {
		cfg.DefaultPrincipal = &p
	}
	sc := server.NewServerContext(ctx, cfg)
	t.Cleanup(func() { _ = sc.Shutdown() })

	return &Env{
		SC:        sc,
		Tasks:     taskSvc,
		Notify:    notifier,
		Principal: p,
		Server:    mcpserver.NewMCPServer("taskcal-test", "test", mcpserver.WithToolCapabilities(true)),
	}
}

// Call invokes a registered tool directly through its handler.
func (e *Env) Call(t *testing.T, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()
	tool, ok := e.Server.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return tool.Handler(context.Background(), req)
}

// Text returns the first text content of result.
func Text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

// ToolNames lists the registered tools.
func (e *Env) ToolNames() []string {
	var names []string
	for name := range e.Server.ListTools() {
		names = append(names, name)
	}
	return names
}
