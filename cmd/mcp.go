package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var (
		user     string
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout for AI assistants.

The server opens the local database directly and acts as the user given by
--user, which must already be registered (see "taskcal serve" and
POST /api/auth/register).

Tools:
  tasks_list, tasks_get, calendar_month, notifications_list
  tasks_create, tasks_update, tasks_complete, tasks_delete,
  notifications_mark_read (hidden with --read-only)

Resources:
  user://profile
  taskcal://calendar/{month}

Logs go to stderr so stdout stays reserved for the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(user, readOnly)
		},
	}

	cmd.Flags().StringVar(&user, "user", os.Getenv("TASKCAL_USER"), "Email of the user the tools act for. Can also use TASKCAL_USER env var.")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Only register tools that do not modify data")

	return cmd
}

func runMCP(user string, readOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(ctx, cfg, logger, appOptions{instrument: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	principal, err := a.principal(ctx, user)
	if err != nil {
		return err
	}

	sc := a.serverContext(ctx, readOnly || cfg.Server.ReadOnly, &principal)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc)
	if err != nil {
		return err
	}

	logger.Info("starting MCP stdio server",
		slog.String("user_id", principal.UserID),
		slog.Bool("read_only", sc.ReadOnly()))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	case <-ctx.Done():
	}
	return nil
}
