package tasks

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

var (
	// ErrNotFound is returned when a task does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("task not found")

	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("invalid task")
)

// Task is a persisted to-do record.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Due         string    `json:"due,omitempty"`
	Status      Status    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DueDate returns the raw due date so tasks can be placed on a calendar.
func (t Task) DueDate() string { return t.Due }

// Done reports whether the task is completed.
func (t Task) Done() bool { return t.Status == StatusDone }

// Input holds the fields of a new task. An empty Status means pending.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Due         string `json:"due,omitempty"`
	Status      Status `json:"status,omitempty"`
}

// Patch is a partial update; nil fields are left unchanged. A non-nil empty
// Due clears the due date.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Due         *string `json:"due,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Due == nil && p.Status == nil
}

// Filter narrows a task listing. Zero values match everything. DueFrom and
// DueTo are inclusive YYYY-MM-DD bounds; a bounded filter never matches
// undated tasks.
type Filter struct {
	Status  Status
	DueFrom string
	DueTo   string
	Limit   int
}
