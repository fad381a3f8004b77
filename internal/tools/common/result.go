package common

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

// JSONResult renders v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

// ErrorResult turns a domain error into a tool error the model can act
// on. Errors the caller cannot fix are returned as protocol errors.
func ErrorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, notify.ErrNotFound):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, tasks.ErrInvalid), errors.Is(err, ErrNoPrincipal):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}
