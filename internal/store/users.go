package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/teemow/taskcal/internal/auth"
)

var _ auth.UserRepository = (*Store)(nil)

// CreateUser inserts a user. A duplicate email is reported as
// auth.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u auth.User) error {
	return s.observe(ctx, "users.create", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users(id, email, name, password_hash, created_at) VALUES(?,?,?,?,?)`,
			u.ID, u.Email, u.Name, u.PasswordHash, formatTime(u.CreatedAt),
		)
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return err
	})
}

// UserByEmail looks up a user by lower-cased address.
func (s *Store) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.user(ctx, "users.by_email", `SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email)
}

// UserByID looks up a user by ID.
func (s *Store) UserByID(ctx context.Context, id string) (auth.User, error) {
	return s.user(ctx, "users.by_id", `SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) user(ctx context.Context, operation, query string, arg string) (auth.User, error) {
	var u auth.User
	err := s.observe(ctx, operation, func(ctx context.Context) error {
		var created string
		err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created)
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		u.CreatedAt, err = parseTime(created)
		return err
	})
	return u, err
}
