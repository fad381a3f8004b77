package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/tasks"
)

// Service writes notifications for task events and reminders.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	loc     *time.Location
	now     func() time.Time
	newID   func() string
}

var _ tasks.EventSink = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation sets the zone that decides what "today" is for reminders.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.Default(),
		loc:    time.Local,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithComponent(s.logger, "notify")
	return s
}

// TaskEvent records a notification for a created or completed task.
func (s *Service) TaskEvent(ctx context.Context, ev tasks.Event) error {
	var n Notification
	switch ev.Kind {
	case tasks.EventCreated:
		n = Notification{
			Kind:     KindTaskCreated,
			Message:  fmt.Sprintf("Task %q created", ev.Task.Title),
			DedupKey: dedupKey(KindTaskCreated, ev.Task.ID, ""),
		}
	case tasks.EventCompleted:
		n = Notification{
			Kind:    KindTaskCompleted,
			Message: fmt.Sprintf("Task %q completed", ev.Task.Title),
			// a task can be reopened and completed again
			DedupKey: dedupKey(KindTaskCompleted, ev.Task.ID, ev.Task.UpdatedAt.UTC().Format(time.RFC3339Nano)),
		}
	default:
		return nil
	}
	n.UserID = ev.Task.OwnerID
	n.TaskID = ev.Task.ID

	_, err := s.create(ctx, n)
	return err
}

// List returns the notifications of userID, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	list, err := s.repo.ListNotifications(ctx, userID, unreadOnly, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead marks one notification of userID as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkNotificationRead(ctx, userID, id)
}

// MarkAllRead marks every notification of userID as read and returns how
// many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

// ReminderResult counts the notifications one reminder run created.
type ReminderResult struct {
	DueSoon int
	Overdue int
}

// RunReminders creates task_due_soon notifications for pending tasks due
// tomorrow and task_overdue notifications for pending tasks due before
// today. Running it twice on the same day creates nothing new.
func (s *Service) RunReminders(ctx context.Context) (ReminderResult, error) {
	start := time.Now()
	var res ReminderResult

	today := s.now().In(s.loc)
	todayDate := today.Format(calendar.DateLayout)
	tomorrow := today.AddDate(0, 0, 1).Format(calendar.DateLayout)
	yesterday := today.AddDate(0, 0, -1).Format(calendar.DateLayout)

	soon, err := s.repo.PendingTasksDue(ctx, tomorrow, tomorrow)
	if err != nil {
		return res, fmt.Errorf("failed to load tasks due %s: %w", tomorrow, err)
	}
	for _, t := range soon {
		ok, err := s.create(ctx, Notification{
			UserID:   t.OwnerID,
			TaskID:   t.ID,
			Kind:     KindTaskDueSoon,
			Message:  fmt.Sprintf("Task %q is due tomorrow (%s)", t.Title, t.Due),
			DedupKey: dedupKey(KindTaskDueSoon, t.ID, t.Due),
		})
		if err != nil {
			return res, err
		}
		if ok {
			res.DueSoon++
		}
	}

	overdue, err := s.repo.PendingTasksDue(ctx, "", yesterday)
	if err != nil {
		return res, fmt.Errorf("failed to load overdue tasks: %w", err)
	}
	for _, t := range overdue {
		ok, err := s.create(ctx, Notification{
			UserID:   t.OwnerID,
			TaskID:   t.ID,
			Kind:     KindTaskOverdue,
			Message:  fmt.Sprintf("Task %q is overdue (due %s)", t.Title, t.Due),
			DedupKey: dedupKey(KindTaskOverdue, t.ID, t.Due),
		})
		if err != nil {
			return res, err
		}
		if ok {
			res.Overdue++
		}
	}

	s.logger.InfoContext(ctx, "reminders sent",
		slog.String("date", todayDate),
		slog.Int("due_soon", res.DueSoon),
		slog.Int("overdue", res.Overdue),
		logging.Duration(time.Since(start)))
	return res, nil
}

func (s *Service) create(ctx context.Context, n Notification) (bool, error) {
	n.ID = s.newID()
	n.CreatedAt = s.now().UTC()

	inserted, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return false, fmt.Errorf("failed to store %s notification: %w", n.Kind, err)
	}
	if inserted {
		s.metrics.RecordNotificationCreated(ctx, string(n.Kind))
		s.logger.DebugContext(ctx, "notification created",
			slog.String("kind", string(n.Kind)), logging.UserID(n.UserID), logging.TaskID(n.TaskID))
	}
	return inserted, nil
}
