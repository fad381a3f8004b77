package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/tasks"
)

type memRepo struct {
	mu    sync.Mutex
	items []Notification
	keys  map[string]bool
	tasks []tasks.Task
}

func newMemRepo(ts ...tasks.Task) *memRepo {
	return &memRepo{keys: map[string]bool{}, tasks: ts}
}

func (m *memRepo) CreateNotification(_ context.Context, n Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[n.DedupKey] {
		return false, nil
	}
	m.keys[n.DedupKey] = true
	m.items = append(m.items, n)
	return true, nil
}

func (m *memRepo) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRepo) MarkNotificationRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRepo) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) PendingTasksDue(_ context.Context, from, to string) ([]tasks.Task, error) {
	var out []tasks.Task
	for _, t := range m.tasks {
		if t.Status != tasks.StatusPending || t.Due == "" {
			continue
		}
		if (from == "" || t.Due >= from) && t.Due <= to {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due < out[j].Due })
	return out, nil
}

func newTestService(repo Repository, now time.Time) *Service {
	var seq int
	return NewService(repo,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("n-%d", seq) }),
	)
}

func TestTaskEvent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	task := tasks.Task{ID: "t1", Title: "Pay rent", OwnerID: "u1", UpdatedAt: time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)}

	require.NoError(t, svc.TaskEvent(ctx, tasks.Event{Kind: tasks.EventCreated, Task: task}))
	require.NoError(t, svc.TaskEvent(ctx, tasks.Event{Kind: tasks.EventCreated, Task: task}))
	require.NoError(t, svc.TaskEvent(ctx, tasks.Event{Kind: tasks.EventCompleted, Task: task}))

	// completing again after a reopen is a new event
	task.UpdatedAt = task.UpdatedAt.Add(time.Hour)
	require.NoError(t, svc.TaskEvent(ctx, tasks.Event{Kind: tasks.EventCompleted, Task: task}))

	list, err := svc.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, KindTaskCompleted, list[0].Kind)
	assert.Equal(t, KindTaskCreated, list[2].Kind)
	assert.Equal(t, "t1", list[2].TaskID)
	assert.Contains(t, list[2].Message, "Pay rent")

	others, err := svc.List(ctx, "u2", false)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestRunReminders(t *testing.T) {
	repo := newMemRepo(
		tasks.Task{ID: "soon", Title: "Dentist", OwnerID: "u1", Due: "2024-02-11", Status: tasks.StatusPending},
		tasks.Task{ID: "today", Title: "Standup", OwnerID: "u1", Due: "2024-02-10", Status: tasks.StatusPending},
		tasks.Task{ID: "late", Title: "Taxes", OwnerID: "u2", Due: "2024-01-31", Status: tasks.StatusPending},
		tasks.Task{ID: "done", Title: "Old", OwnerID: "u2", Due: "2024-01-01", Status: tasks.StatusDone},
		tasks.Task{ID: "undated", Title: "Someday", OwnerID: "u1", Status: tasks.StatusPending},
	)
	svc := newTestService(repo, time.Date(2024, 2, 10, 7, 59, 0, 0, time.UTC))
	ctx := context.Background()

	res, err := svc.RunReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{DueSoon: 1, Overdue: 1}, res)

	res, err = svc.RunReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{}, res, "second run on the same day creates nothing")

	u1, err := svc.List(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.Equal(t, KindTaskDueSoon, u1[0].Kind)
	assert.Equal(t, "task_due_soon:soon:2024-02-11", u1[0].DedupKey)

	u2, err := svc.List(ctx, "u2", true)
	require.NoError(t, err)
	require.Len(t, u2, 1)
	assert.Equal(t, KindTaskOverdue, u2[0].Kind)
}

func TestRunReminders_UsesLocation(t *testing.T) {
	repo := newMemRepo(
		tasks.Task{ID: "t", Title: "Call", OwnerID: "u1", Due: "2024-02-11", Status: tasks.StatusPending},
	)
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 9th is already the 10th in Tokyo
	svc := NewService(repo,
		WithLocation(tokyo),
		WithClock(func() time.Time { return time.Date(2024, 2, 9, 20, 0, 0, 0, time.UTC) }),
	)

	res, err := svc.RunReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.DueSoon)
}

func TestMarkRead(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, time.Now())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		task := tasks.Task{ID: fmt.Sprintf("t%d", i), Title: "x", OwnerID: "u1"}
		require.NoError(t, svc.TaskEvent(ctx, tasks.Event{Kind: tasks.EventCreated, Task: task}))
	}

	require.NoError(t, svc.MarkRead(ctx, "u1", "n-1"))
	assert.ErrorIs(t, svc.MarkRead(ctx, "u2", "n-2"), ErrNotFound)

	unread, err := svc.List(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = svc.List(ctx, "u1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNewReminder(t *testing.T) {
	svc := newTestService(newMemRepo(), time.Now())

	_, err := NewReminder(svc, "not a schedule", time.UTC, nil)
	require.Error(t, err)

	r, err := NewReminder(svc, "", time.UTC, nil)
	require.NoError(t, err)
	r.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, r.Stop(ctx))
}
