package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/client"
	"github.com/teemow/taskcal/internal/ui"
)

const defaultServerURL = "http://localhost:8080"

type calendarFlags struct {
	server   string
	token    string
	email    string
	password string
	plain    bool
}

func newCalendarCmd() *cobra.Command {
	var f calendarFlags

	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show tasks in a month calendar",
		Long: `Show tasks from a running taskcal server as a month calendar.

In a terminal the calendar is interactive:
  p/n, left/right    previous/next month (also h/l)
  t                   jump to the current month
  r                   reload
  q                   quit

With --plain, or when stdout is not a terminal, the month is printed once.

Authenticate with --token (TASKCAL_TOKEN) or --email and --password
(TASKCAL_EMAIL, TASKCAL_PASSWORD). Without a password you are prompted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := time.Now()
			if len(args) == 1 {
				m, err := calendar.ParseMonth(args[0])
				if err != nil {
					return err
				}
				anchor = m.Start()
			}
			return runCalendar(cmd, f, anchor)
		},
	}

	cmd.Flags().StringVar(&f.server, "server", envOr("TASKCAL_SERVER", defaultServerURL), "Base URL of the taskcal server. Can also use TASKCAL_SERVER env var.")
	cmd.Flags().StringVar(&f.token, "token", os.Getenv("TASKCAL_TOKEN"), "Bearer token. Can also use TASKCAL_TOKEN env var.")
	cmd.Flags().StringVar(&f.email, "email", os.Getenv("TASKCAL_EMAIL"), "Account email used to log in. Can also use TASKCAL_EMAIL env var.")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password. Can also use TASKCAL_PASSWORD env var.")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print the month once instead of starting the interactive view")

	return cmd
}

func runCalendar(cmd *cobra.Command, f calendarFlags, anchor time.Time) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	c, err := client.New(f.server, client.WithToken(f.token), client.WithLogger(logger))
	if err != nil {
		return err
	}

	if f.token == "" {
		if err := login(ctx, c, f, cmd); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if f.plain || !ui.IsTTY(out) {
		text, err := ui.RenderPlain(ctx, c, anchor, time.Now())
		fmt.Fprint(out, text)
		return err
	}
	return ui.Run(ctx, c, anchor)
}

// login exchanges email and password for a token on c.
func login(ctx context.Context, c *client.Client, f calendarFlags, cmd *cobra.Command) error {
	if f.email == "" {
		return errors.New("either --token or --email is required")
	}
	password := f.password
	if password == "" {
		password = os.Getenv("TASKCAL_PASSWORD")
	}
	if password == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", f.email)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if _, err := c.Login(ctx, f.email, password); err != nil {
		if client.IsUnauthorized(err) {
			return errors.New("login failed: invalid email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
