package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// Service registers users, checks passwords and issues bearer tokens.
type Service struct {
	users   UserRepository
	tokens  *TokenIssuer
	cost    int
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	now     func() time.Time

	// dummyHash is compared against on unknown emails so that both login
	// failure paths take the same time.
	dummyHash []byte
}

// Config configures a Service.
type Config struct {
	Secret     []byte
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// NewService creates a Service.
func NewService(users UserRepository, cfg Config) (*Service, error) {
	tokens, err := NewTokenIssuer(cfg.Secret, cfg.Issuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range %d..%d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskcal-timing-guard"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		cost:      cost,
		logger:    logging.WithComponent(logger, "auth"),
		metrics:   cfg.Metrics,
		audit:     cfg.Audit,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Tokens returns the token issuer.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register creates an account.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	user, err := s.register(ctx, email, name, password)
	s.record(ctx, instrumentation.AuthOperationRegister, email, user.ID, err)
	return user, err
}

func (s *Service) register(ctx context.Context, email, name, password string) (User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", logging.UserID(user.ID), logging.UserHash(email))
	return user, nil
}

// Login checks the password of email and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	token, user, err := s.login(ctx, email, password)
	s.record(ctx, instrumentation.AuthOperationLogin, email, user.ID, err)
	return token, user, err
}

func (s *Service) login(ctx context.Context, email, password string) (string, User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return "", User{}, err
	}
	return token, user, nil
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	p, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.RecordAuthAttempt(ctx, instrumentation.AuthOperationToken, instrumentation.AuthResultFailure)
		s.logger.DebugContext(ctx, "token rejected", slog.String("token", logging.SanitizeToken(token)), logging.Err(err))
		return Principal{}, err
	}
	s.metrics.RecordAuthAttempt(ctx, instrumentation.AuthOperationToken, instrumentation.AuthResultSuccess)
	return p, nil
}

// User returns the account of a principal.
func (s *Service) User(ctx context.Context, userID string) (User, error) {
	return s.users.UserByID(ctx, userID)
}

// UserByEmail looks up an account by address.
func (s *Service) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) record(ctx context.Context, operation, email, userID string, err error) {
	result := instrumentation.AuthResultSuccess
	if err != nil {
		result = instrumentation.AuthResultFailure
	}
	s.metrics.RecordAuthAttempt(ctx, operation, result)

	ev := instrumentation.AuthEvent{
		Operation: operation,
		Email:     email,
		UserID:    userID,
		Success:   err == nil,
		RemoteIP:  RemoteIPFromContext(ctx),
	}
	if err != nil {
		ev.Reason = err.Error()
	}
	s.audit.LogAuthEvent(ev)
}
