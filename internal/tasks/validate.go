package tasks

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/teemow/taskcal/internal/calendar"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title is required")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return "", invalid("title is %d characters, the limit is %d", n, MaxTitleLength)
	}
	return title, nil
}

func normalizeDescription(desc string) (string, error) {
	if n := utf8.RuneCountInString(desc); n > MaxDescriptionLength {
		return "", invalid("description is %d characters, the limit is %d", n, MaxDescriptionLength)
	}
	return desc, nil
}

// normalizeDue accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// plain date. Empty stays empty.
func normalizeDue(due string) (string, error) {
	due = strings.TrimSpace(due)
	if due == "" {
		return "", nil
	}
	date, ok := calendar.NormalizeDue(due)
	if !ok {
		return "", invalid("due date %q is not a valid YYYY-MM-DD date", due)
	}
	return date, nil
}

func normalizeStatus(s Status) (Status, error) {
	if s == "" {
		return StatusPending, nil
	}
	if !s.Valid() {
		return "", invalid("status %q is not one of pending, done", s)
	}
	return s, nil
}

func normalizeFilter(f Filter) (Filter, error) {
	if f.Status != "" && !f.Status.Valid() {
		return f, invalid("status %q is not one of pending, done", f.Status)
	}
	var err error
	if f.DueFrom, err = normalizeDue(f.DueFrom); err != nil {
		return f, err
	}
	if f.DueTo, err = normalizeDue(f.DueTo); err != nil {
		return f, err
	}
	if f.DueFrom != "" && f.DueTo != "" && f.DueFrom > f.DueTo {
		return f, invalid("due range %s..%s is empty", f.DueFrom, f.DueTo)
	}
	if f.Limit < 0 {
		return f, invalid("limit must not be negative")
	}
	return f, nil
}
