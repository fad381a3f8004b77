package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teemow/taskcal/internal/logging"
)

// DefaultReminderSchedule runs reminders every day at 08:00.
const DefaultReminderSchedule = "0 8 * * *"

// reminderTimeout bounds a single reminder run.
const reminderTimeout = 2 * time.Minute

// Reminder runs Service.RunReminders on a cron schedule.
type Reminder struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewReminder schedules svc's reminders. An empty schedule uses
// DefaultReminderSchedule; a nil loc uses time.Local.
func NewReminder(svc *Service, schedule string, loc *time.Location, logger *slog.Logger) (*Reminder, error) {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithComponent(logger, "reminder")
	cronLogger := logging.NewCronLogger(logger)

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
		defer cancel()
		if _, err := svc.RunReminders(ctx); err != nil {
			logger.Error("reminder run failed", logging.Err(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	return &Reminder{cron: c, logger: logger}, nil
}

// Start begins scheduling in a background goroutine.
func (r *Reminder) Start() {
	r.cron.Start()
	if entries := r.cron.Entries(); len(entries) > 0 {
		r.logger.Info("reminder scheduler started", slog.Time("next_run", entries[0].Next))
	}
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (r *Reminder) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reminder job still running: %w", ctx.Err())
	}
}
