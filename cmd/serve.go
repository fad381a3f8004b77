package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/server"
)

// startupTimeout bounds how long a listener may take to bind.
const startupTimeout = 5 * time.Second

type serveFlags struct {
	addr           string
	mcp            bool
	readOnly       bool
	noReminders    bool
	tlsCertFile    string
	tlsKeyFile     string
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the taskcal REST API.

The server exposes:
  - /api/auth/*          registration and login (JWT bearer tokens)
  - /api/tasks           task CRUD
  - /api/calendar/{month} tasks binned by day for a YYYY-MM month
  - /api/notifications   in-app notifications
  - /healthz, /readyz    probes
  - /mcp                 MCP streamable HTTP (with --mcp, bearer auth)

Prometheus metrics are served on a separate port (--metrics-addr).
A cron job creates due-soon and overdue reminders (disable with --no-reminders).

Configuration is read from --config, the environment (TASKCAL_*) and flags.
TASKCAL_JWT_SECRET (at least 32 bytes) is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd.Flags(), cfg, f)
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	bindServeFlags(cmd.Flags(), &f)

	return cmd
}

func bindServeFlags(fs *pflag.FlagSet, f *serveFlags) {
	fs.StringVar(&f.addr, "addr", server.DefaultAPIAddr, "API server address. Can also use TASKCAL_ADDR env var.")
	fs.BoolVar(&f.mcp, "mcp", false, "Serve the MCP tools at /mcp. Can also use TASKCAL_MCP_HTTP env var.")
	fs.BoolVar(&f.readOnly, "read-only", false, "Hide MCP write tools. Can also use TASKCAL_READ_ONLY env var.")
	fs.BoolVar(&f.noReminders, "no-reminders", false, "Do not run the reminder job")
	fs.StringVar(&f.tlsCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	fs.StringVar(&f.tlsKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")
	fs.BoolVar(&f.metricsEnabled, "metrics-enabled", false, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	fs.StringVar(&f.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
}

// applyServeFlags copies explicitly set flags over cfg.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config, f serveFlags) {
	if flags.Changed("addr") {
		cfg.Server.Addr = f.addr
	}
	if flags.Changed("mcp") {
		cfg.Server.MCP = f.mcp
	}
	if flags.Changed("read-only") {
		cfg.Server.ReadOnly = f.readOnly
	}
	if f.noReminders {
		cfg.Reminders.Enabled = false
	}
	if flags.Changed("tls-cert-file") {
		cfg.Server.TLSCertFile = f.tlsCertFile
	}
	if flags.Changed("tls-key-file") {
		cfg.Server.TLSKeyFile = f.tlsKeyFile
	}
	if flags.Changed("metrics-enabled") {
		cfg.Metrics.Enabled = f.metricsEnabled
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
}

func runServe(cfg *config.Config) error {
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(shutdownCtx, cfg, logger, appOptions{instrument: true, requireSecret: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	sc := a.serverContext(shutdownCtx, cfg.Server.ReadOnly, nil)
	defer func() { _ = sc.Shutdown() }()

	apiHandler, err := api.New(api.Config{Auth: a.auth, Tasks: a.tasks, Notify: a.notify, Logger: logger})
	if err != nil {
		return err
	}

	health := server.NewHealthChecker(sc)
	health.SetVersion(version)
	health.AddCheck("database", a.store.Ping)

	var mcpHandler http.Handler
	if cfg.Server.MCP {
		mcpSrv, err := newMCPServer(sc)
		if err != nil {
			return err
		}
		mcpHandler = mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithEndpointPath("/mcp"),
		)
		if cfg.Server.ReadOnly {
			logger.Info("MCP tools in read-only mode")
		}
	}

	apiServer, err := server.NewAPIServer(sc, apiHandler, health, server.APIServerConfig{
		Addr:        cfg.Server.Addr,
		TLSCertFile: cfg.Server.TLSCertFile,
		TLSKeyFile:  cfg.Server.TLSKeyFile,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		TrustProxy:  cfg.Server.TrustProxy,
		MCPHandler:  mcpHandler,
	})
	if err != nil {
		return err
	}

	var reminder *notify.Reminder
	if cfg.Reminders.Enabled {
		reminder, err = notify.NewReminder(a.notify, cfg.Reminders.Schedule, cfg.Location(), logger)
		if err != nil {
			return err
		}
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && a.provider.Enabled() && a.provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: a.provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := startServer("metrics", metricsServer.StartWithReadySignal); err != nil {
			return err
		}
	} else if cfg.Metrics.Enabled {
		logger.Warn("metrics server disabled: instrumentation is off or not exporting to prometheus")
	}

	if reminder != nil {
		reminder.Start()
	}

	serverDone := make(chan error, 1)
	ready := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := apiServer.Start(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		logger.Info("taskcal server ready",
			slog.String("url", apiServer.URL()),
			slog.Bool("mcp", cfg.Server.MCP),
			slog.Bool("reminders", cfg.Reminders.Enabled))
	case err := <-serverDone:
		if err == nil {
			err = errors.New("server exited before it was ready")
		}
		return shutdown(cfg, logger, nil, metricsServer, reminder, fmt.Errorf("API server failed to start: %w", err))
	}

	var runErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			runErr = fmt.Errorf("API server stopped with error: %w", err)
		}
	}
	return shutdown(cfg, logger, apiServer, metricsServer, reminder, runErr)
}

// startServer runs start in the background and waits for it to bind.
func startServer(name string, start func(ready chan<- struct{}) error) error {
	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := start(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-ready:
		return nil
	case err := <-failed:
		if err == nil {
			err = errors.New("server exited before it was ready")
		}
		return fmt.Errorf("%s server failed to start: %w", name, err)
	case <-time.After(startupTimeout):
		return fmt.Errorf("%s server startup timed out", name)
	}
}

// shutdown stops everything that was started, in reverse order, within the
// configured shutdown timeout.
func shutdown(cfg *config.Config, logger *slog.Logger, apiServer *server.APIServer, metricsServer *server.MetricsServer, reminder *notify.Reminder, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	errs := []error{cause}
	if apiServer != nil {
		if err := apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down API server: %w", err))
		}
	}
	if reminder != nil {
		if err := reminder.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error stopping reminders: %w", err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("server stopped with errors", logging.Err(err))
	} else {
		logger.Info("server gracefully stopped")
	}
	return err
}
