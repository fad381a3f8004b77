package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/store"
	"github.com/teemow/taskcal/internal/tasks"
)

// app holds the services every server-side command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	store    *store.Store
	auth     *auth.Service
	tasks    *tasks.Service
	notify   *notify.Service
}

// appOptions selects optional parts of the stack.
type appOptions struct {
	// instrument starts the OpenTelemetry provider.
	instrument bool
	// requireSecret fails when no JWT secret is configured. Without it a
	// random per-process secret is used, so tokens never outlive the
	// command.
	requireSecret bool
}

// openApp opens the database and builds the services from cfg.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if opts.instrument {
		instrConfig := instrumentation.DefaultConfig()
		instrConfig.ServiceVersion = version
		provider, err := instrumentation.NewProvider(ctx, instrConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
		}
		a.provider = provider
		if provider.Enabled() {
			a.metrics = provider.Metrics()
			a.audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
		}
	}

	st, err := store.Open(ctx, store.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout.Std(),
		Logger:      logger,
		Metrics:     a.metrics,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.store = st

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		if opts.requireSecret {
			a.Close(ctx)
			return nil, errors.New("auth.jwt_secret is required (set TASKCAL_JWT_SECRET)")
		}
		if secret, err = auth.RandomSecret(); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	a.auth, err = auth.NewService(st, auth.Config{
		Secret:     secret,
		Issuer:     cfg.Auth.Issuer,
		TokenTTL:   cfg.Auth.TokenTTL.Std(),
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
		Metrics:    a.metrics,
		Audit:      a.audit,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.notify = notify.NewService(st,
		notify.WithLogger(logger),
		notify.WithMetrics(a.metrics),
		notify.WithLocation(cfg.Location()))
	a.tasks = tasks.NewService(st,
		tasks.WithEventSink(a.notify),
		tasks.WithLogger(logger),
		tasks.WithMetrics(a.metrics))

	return a, nil
}

// serverContext bundles the services for the API and the MCP tools.
func (a *app) serverContext(ctx context.Context, readOnly bool, principal *auth.Principal) *server.ServerContext {
	return server.NewServerContext(ctx, server.ServerContextConfig{
		Auth:             a.auth,
		Tasks:            a.tasks,
		Notify:           a.notify,
		Logger:           a.logger,
		Metrics:          a.metrics,
		Audit:            a.audit,
		ReadOnly:         readOnly,
		DefaultPrincipal: principal,
	})
}

// principal looks up the user a local command acts for.
func (a *app) principal(ctx context.Context, email string) (auth.Principal, error) {
	if email == "" {
		return auth.Principal{}, errors.New("--user is required")
	}
	user, err := a.auth.UserByEmail(ctx, email)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("failed to find user %s: %w", email, err)
	}
	return auth.Principal{UserID: user.ID, Email: user.Email}, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close database", logging.Err(err))
		}
	}
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shut down instrumentation", logging.Err(err))
		}
	}
}
