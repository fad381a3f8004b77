package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/tasks"
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Task is a task as served by the API.
type Task = tasks.Task

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d (%s)", e.StatusCode, e.Code)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a taskcal server. It is safe for concurrent use once
// configured; SetToken must not race with requests.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (api.LoginResponse, error) {
	var resp api.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return api.LoginResponse{}, err
	}
	c.token = resp.Token
	return resp, nil
}

// ListTasks fetches the caller's tasks. Every task is returned as served;
// the calendar decides what it can place.
func (c *Client) ListTasks(ctx context.Context, filter tasks.Filter) ([]Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.DueFrom != "" {
		q.Set("from", filter.DueFrom)
	}
	if filter.DueTo != "" {
		q.Set("to", filter.DueTo)
	}
	if filter.Limit > 0 {
		q.Set("limit", fmt.Sprint(filter.Limit))
	}

	var list []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", q, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FetchTasks implements calendar.Fetcher with an unfiltered listing.
func (c *Client) FetchTasks(ctx context.Context) ([]Task, error) {
	return c.ListTasks(ctx, tasks.Filter{})
}

var _ calendar.Fetcher[Task] = (*Client)(nil)

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in tasks.Input) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", nil, in, &t)
	return t, err
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, &t)
	return t, err
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch tasks.Patch) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), nil, patch, &t)
	return t, err
}

// CompleteTask marks a task done.
func (c *Client) CompleteTask(ctx context.Context, id string) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/complete", nil, nil, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// Day is one day of a server-rendered month.
type Day struct {
	Date  string `json:"date"`
	Tasks []Task `json:"tasks"`
}

// MonthView is the server-side binning of one month.
type MonthView struct {
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Days        []Day          `json:"days"`
	Unscheduled int            `json:"unscheduled"`
	Stats       calendar.Stats `json:"stats"`
}

// Month fetches the server-side calendar for m.
func (c *Client) Month(ctx context.Context, m calendar.Month) (MonthView, error) {
	var mv MonthView
	err := c.do(ctx, http.MethodGet, "/api/calendar/"+m.String(), nil, nil, &mv)
	return mv, err
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", res.StatusCode),
		logging.Duration(time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode, Code: http.StatusText(res.StatusCode)}
	data, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var body api.ErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	} else if msg := strings.TrimSpace(string(data)); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}
