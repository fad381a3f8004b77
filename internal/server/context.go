package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

// ServerContextConfig lists the dependencies shared by the HTTP API and the
// MCP tools.
type ServerContextConfig struct {
	Auth   *auth.Service
	Tasks  *tasks.Service
	Notify *notify.Service

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	// ReadOnly hides write tools.
	ReadOnly bool

	// DefaultPrincipal is used by tools when the request carries no
	// authenticated user (stdio transport).
	DefaultPrincipal *auth.Principal
}

// ServerContext holds the services of a running server and its shutdown
// state.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    ServerContextConfig

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a ServerContext whose Context is cancelled on
// Shutdown.
func NewServerContext(ctx context.Context, cfg ServerContextConfig) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Auth returns the auth service.
func (sc *ServerContext) Auth() *auth.Service { return sc.cfg.Auth }

// Tasks returns the task service.
func (sc *ServerContext) Tasks() *tasks.Service { return sc.cfg.Tasks }

// Notify returns the notification service.
func (sc *ServerContext) Notify() *notify.Service { return sc.cfg.Notify }

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger { return sc.cfg.Logger }

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.cfg.Metrics }

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.cfg.Audit }

// ReadOnly reports whether write operations are disabled.
func (sc *ServerContext) ReadOnly() bool { return sc.cfg.ReadOnly }

// PrincipalFromContext returns the authenticated user of ctx, falling back
// to the configured default principal.
func (sc *ServerContext) PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if p, ok := auth.UserFromContext(ctx); ok {
		return p, true
	}
	if sc.cfg.DefaultPrincipal != nil && sc.cfg.DefaultPrincipal.UserID != "" {
		return *sc.cfg.DefaultPrincipal, true
	}
	return auth.Principal{}, false
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
