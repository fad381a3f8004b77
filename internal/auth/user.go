package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrEmailTaken is returned by Register when the address is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for a missing, malformed, expired or
	// forged bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWeakPassword is returned by Register for passwords outside the
	// accepted length.
	ErrWeakPassword = errors.New("password must be between 8 and 72 bytes")

	// ErrInvalidEmail is returned by Register for an unparseable address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrUserNotFound is returned by a UserRepository lookup miss.
	ErrUserNotFound = errors.New("user not found")
)

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepository persists users. CreateUser reports a duplicate email as
// ErrEmailTaken; lookups report a miss as ErrUserNotFound.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
}

// NormalizeEmail lower-cases and trims an address and checks that it is a
// bare addr-spec.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return email, nil
}
