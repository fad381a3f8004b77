package notify

import (
	"context"
	"errors"
	"time"

	"github.com/teemow/taskcal/internal/tasks"
)

// Kind classifies a notification.
type Kind string

const (
	KindTaskCreated   Kind = "task_created"
	KindTaskCompleted Kind = "task_completed"
	KindTaskDueSoon   Kind = "task_due_soon"
	KindTaskOverdue   Kind = "task_overdue"
)

// DefaultListLimit caps List when the caller does not.
const DefaultListLimit = 100

// ErrNotFound is returned when a notification does not exist or belongs to
// another user.
var ErrNotFound = errors.New("notification not found")

// Notification is a message for one user, optionally about a task.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`

	// DedupKey is unique across all notifications; a second insert with the
	// same key is dropped.
	DedupKey string `json:"-"`
}

// Repository persists notifications.
type Repository interface {
	// CreateNotification stores n and reports whether it was inserted.
	// A duplicate DedupKey is not an error; it returns false.
	CreateNotification(ctx context.Context, n Notification) (bool, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)

	// PendingTasksDue returns pending tasks of every owner whose due date
	// lies in [from, to]. An empty from is unbounded.
	PendingTasksDue(ctx context.Context, from, to string) ([]tasks.Task, error)
}

func dedupKey(kind Kind, taskID, suffix string) string {
	key := string(kind) + ":" + taskID
	if suffix != "" {
		key += ":" + suffix
	}
	return key
}
