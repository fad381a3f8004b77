package store

import (
	"context"
	"database/sql"

	"github.com/teemow/taskcal/internal/notify"
)

// CreateNotification inserts n unless its dedup key already exists.
func (s *Store) CreateNotification(ctx context.Context, n notify.Notification) (bool, error) {
	var inserted bool
	err := s.observe(ctx, "notifications.create", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO notifications(id, user_id, task_id, kind, message, is_read, created_at, dedup_key)
			 VALUES(?,?,?,?,?,?,?,?)
			 ON CONFLICT(dedup_key) DO NOTHING`,
			n.ID, n.UserID, nullStr(n.TaskID), string(n.Kind), n.Message, n.Read,
			formatTime(n.CreatedAt), n.DedupKey,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		inserted = affected == 1
		return err
	})
	return inserted, err
}

// ListNotifications returns up to limit notifications of userID, newest
// first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]notify.Notification, error) {
	out := []notify.Notification{}
	err := s.observe(ctx, "notifications.list", func(ctx context.Context) error {
		query := `SELECT id, user_id, task_id, kind, message, is_read, created_at, dedup_key
			FROM notifications WHERE user_id = ?`
		if unreadOnly {
			query += ` AND is_read = 0`
		}
		query += ` ORDER BY created_at DESC, id DESC`
		args := []any{userID}
		if limit > 0 {
			query += ` LIMIT ?`
			args = append(args, limit)
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				n       notify.Notification
				taskID  sql.NullString
				kind    string
				created string
			)
			if err := rows.Scan(&n.ID, &n.UserID, &taskID, &kind, &n.Message, &n.Read, &created, &n.DedupKey); err != nil {
				return err
			}
			n.TaskID = taskID.String
			n.Kind = notify.Kind(kind)
			if n.CreatedAt, err = parseTime(created); err != nil {
				return err
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	return out, err
}

// MarkNotificationRead marks one notification of userID as read.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return s.observe(ctx, "notifications.mark_read", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
		return expectOne(res, err, notify.ErrNotFound)
	})
}

// MarkAllNotificationsRead marks every unread notification of userID.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.observe(ctx, "notifications.mark_all_read", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
