package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

var (
	_ tasks.Repository  = (*Store)(nil)
	_ notify.Repository = (*Store)(nil)
)

const taskColumns = `id, owner_id, title, description, due, status, created_at, updated_at`

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, t tasks.Task) error {
	return s.observe(ctx, "tasks.create", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tasks(`+taskColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
			t.ID, t.OwnerID, t.Title, t.Description, t.Due, string(t.Status),
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		)
		return err
	}, taskAttrs(t.ID)...)
}

// GetTask returns a task of ownerID.
func (s *Store) GetTask(ctx context.Context, ownerID, id string) (tasks.Task, error) {
	var t tasks.Task
	err := s.observe(ctx, "tasks.get", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
		var err error
		t, err = scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return tasks.ErrNotFound
		}
		return err
	}, taskAttrs(id)...)
	return t, err
}

// ListTasks returns the tasks of ownerID matching f, ordered by due date
// with undated tasks last, then by creation time.
func (s *Store) ListTasks(ctx context.Context, ownerID string, f tasks.Filter) ([]tasks.Task, error) {
	var out []tasks.Task
	err := s.observe(ctx, "tasks.list", func(ctx context.Context) error {
		where := []string{"owner_id = ?"}
		args := []any{ownerID}
		if f.Status != "" {
			where = append(where, "status = ?")
			args = append(args, string(f.Status))
		}
		if f.DueFrom != "" {
			where = append(where, "due <> '' AND due >= ?")
			args = append(args, f.DueFrom)
		}
		if f.DueTo != "" {
			where = append(where, "due <> '' AND due <= ?")
			args = append(args, f.DueTo)
		}

		query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
			` ORDER BY due = '', due, created_at, id`
		if f.Limit > 0 {
			query += ` LIMIT ?`
			args = append(args, f.Limit)
		}

		var err error
		out, err = s.queryTasks(ctx, query, args...)
		return err
	})
	return out, err
}

// UpdateTask overwrites the mutable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, t tasks.Task) error {
	return s.observe(ctx, "tasks.update", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET title = ?, description = ?, due = ?, status = ?, updated_at = ?
			 WHERE id = ? AND owner_id = ?`,
			t.Title, t.Description, t.Due, string(t.Status), formatTime(t.UpdatedAt), t.ID, t.OwnerID,
		)
		return expectOne(res, err, tasks.ErrNotFound)
	}, taskAttrs(t.ID)...)
}

// DeleteTask removes a task of ownerID.
func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) error {
	return s.observe(ctx, "tasks.delete", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
		return expectOne(res, err, tasks.ErrNotFound)
	}, taskAttrs(id)...)
}

// DeleteCompletedBefore removes done tasks of every owner last updated
// before the cutoff.
func (s *Store) DeleteCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.observe(ctx, "tasks.purge", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM tasks WHERE status = 'done' AND updated_at < ?`, formatTime(before))
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// PendingTasksDue returns pending tasks of every owner due in [from, to].
func (s *Store) PendingTasksDue(ctx context.Context, from, to string) ([]tasks.Task, error) {
	var out []tasks.Task
	err := s.observe(ctx, "tasks.pending_due", func(ctx context.Context) error {
		var err error
		out, err = s.queryTasks(ctx,
			`SELECT `+taskColumns+` FROM tasks
			 WHERE status = 'pending' AND due <> '' AND (? = '' OR due >= ?) AND due <= ?
			 ORDER BY due, created_at, id`,
			from, from, to)
		return err
	})
	return out, err
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []tasks.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(row rowScanner) (tasks.Task, error) {
	var (
		t                tasks.Task
		status           string
		created, updated string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Due, &status, &created, &updated); err != nil {
		return tasks.Task{}, err
	}
	t.Status = tasks.Status(status)

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return tasks.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return tasks.Task{}, err
	}
	return t, nil
}

func expectOne(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func taskAttrs(id string) []attribute.KeyValue {
	return instrumentation.NewSpanAttributeBuilder().WithTask(id).Build()
}
