package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultRetention = 30 * 24 * time.Hour

func newCleanupCmd() *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete completed tasks older than a retention period",
		Long: `Delete done tasks of every user whose last update is older than
--older-than. Open tasks are never removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			cutoff := time.Now().Add(-olderThan)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Would delete completed tasks last updated before %s\n", cutoff.Format(time.RFC3339))
				return nil
			}

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

			ctx := context.Background()
			a, err := openApp(ctx, cfg, logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			n, err := a.tasks.PurgeCompleted(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d completed task(s)\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", defaultRetention, "Only delete tasks completed longer ago than this")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the cutoff without deleting anything")

	return cmd
}
