package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// Repository persists tasks. Every read and write is scoped to an owner;
// a task that belongs to someone else is reported as ErrNotFound.
type Repository interface {
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, ownerID, id string) (Task, error)
	ListTasks(ctx context.Context, ownerID string, filter Filter) ([]Task, error)
	UpdateTask(ctx context.Context, task Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
	DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error)
}

// EventKind names a task lifecycle event.
type EventKind string

const (
	EventCreated   EventKind = "task_created"
	EventCompleted EventKind = "task_completed"
)

// Event is emitted after a task change has been persisted.
type Event struct {
	Kind EventKind
	Task Task
}

// EventSink receives task events. Errors are logged and never undo the
// change that caused the event.
type EventSink interface {
	TaskEvent(ctx context.Context, ev Event) error
}

// Service implements task CRUD on top of a Repository.
type Service struct {
	repo    Repository
	events  EventSink
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink sets the receiver of task events.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder used for calendar exclusions.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) { s.metrics = m }
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
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithComponent(s.logger, "tasks")
	return s
}

// Create validates in and stores a new task for ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return Task{}, err
	}
	desc, err := normalizeDescription(in.Description)
	if err != nil {
		return Task{}, err
	}
	due, err := normalizeDue(in.Due)
	if err != nil {
		return Task{}, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return Task{}, err
	}

	now := s.now().UTC()
	task := Task{
		ID:          s.newID(),
		Title:       title,
		Description: desc,
		Due:         due,
		Status:      status,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.DebugContext(ctx, "task created", logging.TaskID(task.ID), logging.UserID(ownerID))
	s.emit(ctx, EventCreated, task)
	return task, nil
}

// Get returns one task of ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Task, error) {
	return s.repo.GetTask(ctx, ownerID, id)
}

// List returns the tasks of ownerID matching filter, ordered by due date
// (undated last) then creation time.
func (s *Service) List(ctx context.Context, ownerID string, filter Filter) ([]Task, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTasks(ctx, ownerID, f)
}

// Update applies patch to a task of ownerID. Setting Status to done through
// a patch emits the same event as Complete.
func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (Task, error) {
	if patch.Empty() {
		return Task{}, invalid("no fields to update")
	}

	task, err := s.repo.GetTask(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}
	wasDone := task.Done()

	if patch.Title != nil {
		if task.Title, err = normalizeTitle(*patch.Title); err != nil {
			return Task{}, err
		}
	}
	if patch.Description != nil {
		if task.Description, err = normalizeDescription(*patch.Description); err != nil {
			return Task{}, err
		}
	}
	if patch.Due != nil {
		if task.Due, err = normalizeDue(*patch.Due); err != nil {
			return Task{}, err
		}
	}
	if patch.Status != nil {
		if *patch.Status == "" {
			return Task{}, invalid("status must not be empty")
		}
		if task.Status, err = normalizeStatus(*patch.Status); err != nil {
			return Task{}, err
		}
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	if !wasDone && task.Done() {
		s.emit(ctx, EventCompleted, task)
	}
	return task, nil
}

// Complete marks a task of ownerID as done. Completing a done task is a
// no-op that returns the task unchanged.
func (s *Service) Complete(ctx context.Context, ownerID, id string) (Task, error) {
	task, err := s.repo.GetTask(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}
	if task.Done() {
		return task, nil
	}

	task.Status = StatusDone
	task.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return Task{}, fmt.Errorf("failed to complete task: %w", err)
	}

	s.emit(ctx, EventCompleted, task)
	return task, nil
}

// Delete removes a task of ownerID.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.DeleteTask(ctx, ownerID, id)
}

// Month loads every task of ownerID and bins it into the days of month.
func (s *Service) Month(ctx context.Context, ownerID string, month calendar.Month) ([]calendar.DayBucket[Task], calendar.Stats, error) {
	all, err := s.repo.ListTasks(ctx, ownerID, Filter{})
	if err != nil {
		return nil, calendar.Stats{}, fmt.Errorf("failed to load tasks for %s: %w", month, err)
	}

	buckets, stats := calendar.BinWithStats(month.Start(), all)

	s.metrics.RecordCalendarExcluded(ctx, instrumentation.ExcludedUndated, stats.Undated)
	s.metrics.RecordCalendarExcluded(ctx, instrumentation.ExcludedMalformed, stats.Malformed)
	if stats.Malformed > 0 {
		s.logger.WarnContext(ctx, "tasks with malformed due dates left off the calendar",
			logging.UserID(ownerID), logging.Month(month.String()), slog.Int("count", stats.Malformed))
	}

	return buckets, stats, nil
}

// PurgeCompleted deletes done tasks of every owner last updated before the
// cutoff and returns how many were removed.
func (s *Service) PurgeCompleted(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.DeleteCompletedBefore(ctx, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed tasks: %w", err)
	}
	s.logger.InfoContext(ctx, "purged completed tasks", slog.Int64("count", n), slog.Time("before", before))
	return n, nil
}

func (s *Service) emit(ctx context.Context, kind EventKind, task Task) {
	if s.events == nil {
		return
	}
	if err := s.events.TaskEvent(ctx, Event{Kind: kind, Task: task}); err != nil {
		s.logger.WarnContext(ctx, "task event not delivered",
			slog.String("kind", string(kind)), logging.TaskID(task.ID), logging.Err(err))
	}
}
