package common

import (
	"fmt"
	"math"
	"strings"
)

// StringArg returns args[name] when it is a string. present is false when
// the argument was not sent at all.
func StringArg(args map[string]any, name string) (value string, present bool, err error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("%s must be a string", name)
	}
	return s, true, nil
}

// RequiredString returns a non-blank string argument.
func RequiredString(args map[string]any, name string) (string, error) {
	s, _, err := StringArg(args, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

// IntArg returns a whole-number argument, or def when absent. JSON numbers
// arrive as float64.
func IntArg(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// BoolArg returns a boolean argument, or def when absent.
func BoolArg(args map[string]any, name string, def bool) (bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b, nil
}
