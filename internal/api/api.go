package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

// Config holds the services behind the API.
type Config struct {
	Auth   *auth.Service
	Tasks  *tasks.Service
	Notify *notify.Service
	Logger *slog.Logger
}

// API serves the JSON endpoints under /api/.
type API struct {
	auth      *auth.Service
	tasks     *tasks.Service
	notify    *notify.Service
	validator *validator
	logger    *slog.Logger
}

// New creates an API.
func New(cfg Config) (*API, error) {
	if cfg.Auth == nil || cfg.Tasks == nil || cfg.Notify == nil {
		return nil, errors.New("api requires auth, tasks and notify services")
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		auth:      cfg.Auth,
		tasks:     cfg.Tasks,
		notify:    cfg.Notify,
		validator: v,
		logger:    logging.WithComponent(logger, "api"),
	}, nil
}

// Register mounts every route on mux. Routes other than register and login
// require a bearer token.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, a.auth.Middleware(h))
	}

	protected("GET /api/auth/me", a.handleMe)

	protected("GET /api/tasks", a.handleListTasks)
	protected("POST /api/tasks", a.handleCreateTask)
	protected("GET /api/tasks/{id}", a.handleGetTask)
	protected("PATCH /api/tasks/{id}", a.handleUpdateTask)
	protected("POST /api/tasks/{id}/complete", a.handleCompleteTask)
	protected("DELETE /api/tasks/{id}", a.handleDeleteTask)

	protected("GET /api/calendar/{month}", a.handleCalendar)

	protected("GET /api/notifications", a.handleListNotifications)
	protected("POST /api/notifications/{id}/read", a.handleMarkRead)
	protected("POST /api/notifications/read-all", a.handleMarkAllRead)
}

// Handler returns a mux serving only the API routes.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Register(mux)
	return mux
}

// principal returns the caller set by the auth middleware. Every protected
// handler runs behind it, so a miss is a wiring bug.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.UserFromContext(r.Context())
	return p
}
