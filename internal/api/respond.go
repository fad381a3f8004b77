package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

// Error codes of the JSON error body.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal_error"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("invalid request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: code, Message: message})
}

// writeError maps a service error to a response. Unknown errors are
// logged and hidden behind a generic 500.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), logging.Err(err))
		message = "internal server error"
	}
	WriteError(w, status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, tasks.ErrInvalid),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, tasks.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// decode reads the body, validates it against schema and unmarshals it
// into dst.
func (a *API) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequest("failed to read request body")
	}

	// Numbers stay json.Number so the validator sees them unrounded.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return badRequest("request body is not valid JSON")
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON value")
	}
	if err := a.validator.validate(schema, doc); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("request body does not match the expected shape: %v", err)
	}
	return nil
}
