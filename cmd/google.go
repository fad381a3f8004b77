package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/google"
	"github.com/teemow/taskcal/internal/googletasks"
)

func googleOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	return google.Config(google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	})
}

func newGoogleAuthCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "google-auth",
		Short: "Authorize read access to Google Tasks",
		Long: `Authorize taskcal to read your Google Tasks for "taskcal import-google".

Opens nothing by itself: visit the printed URL, approve access and paste the
authorization code back. The token is cached in the user cache directory.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conf, err := googleOAuthConfig(cfg)
			if err != nil {
				return err
			}

			path := google.TokenFile()
			out := cmd.OutOrStdout()
			if google.HasToken(path) && !force {
				fmt.Fprintf(out, "A Google token already exists at %s (use --force to replace it)\n", path)
				return nil
			}

			fmt.Fprintf(out, "Visit this URL to authorize taskcal:\n\n%s\n\nAuthorization code: ", google.AuthURL(conf, "taskcal"))
			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			code = strings.TrimSpace(code)
			if code == "" {
				if err == nil {
					err = errors.New("empty code")
				}
				return fmt.Errorf("failed to read authorization code: %w", err)
			}

			if _, err := google.Exchange(cmd.Context(), conf, code, path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token")

	return cmd
}

type importFlags struct {
	user             string
	lists            []string
	includeCompleted bool
	dryRun           bool
}

func newImportGoogleCmd() *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import-google",
		Short: "Import tasks from Google Tasks",
		Long: `Copy tasks from Google Tasks into the local database for --user.

Due dates are kept as dates. Notes become descriptions. Completed tasks are
skipped unless --include-completed is set. Run "taskcal google-auth" first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportGoogle(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.user, "user", "", "Email of the user that receives the tasks")
	cmd.Flags().StringSliceVar(&f.lists, "list", nil, "Google task list ID to import (repeatable, default: all lists)")
	cmd.Flags().BoolVar(&f.includeCompleted, "include-completed", false, "Also import completed tasks")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would be imported without writing")

	return cmd
}

func runImportGoogle(cmd *cobra.Command, f importFlags) error {
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
	conf, err := googleOAuthConfig(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	principal, err := a.principal(ctx, f.user)
	if err != nil {
		return err
	}

	httpClient, err := google.HTTPClient(ctx, conf, google.TokenFile())
	if err != nil {
		return err
	}
	src, err := googletasks.NewClient(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return err
	}

	res, err := googletasks.Import(ctx, src, a.tasks, principal.UserID, googletasks.ImportOptions{
		ListIDs:          f.lists,
		IncludeCompleted: f.includeCompleted,
		DryRun:           f.dryRun,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.dryRun {
		for _, in := range res.Inputs {
			due := in.Due
			if due == "" {
				due = "unscheduled"
			}
			fmt.Fprintf(out, "  %-12s %s\n", due, in.Title)
		}
	}
	fmt.Fprintf(out, "Lists: %d, imported: %d, skipped: %d\n", res.Lists, res.Imported, res.Skipped)
	logger.Info("google import finished",
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
		slog.Bool("dry_run", f.dryRun))
	return nil
}
