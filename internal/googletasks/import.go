package googletasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/tasks"
)

// Source lists Google task lists and their tasks. *Client implements it.
type Source interface {
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	ListTasks(ctx context.Context, taskListID string, includeCompleted bool) ([]Task, error)
}

// Creator creates local tasks. *tasks.Service implements it.
type Creator interface {
	Create(ctx context.Context, ownerID string, in tasks.Input) (tasks.Task, error)
}

// ImportOptions narrows an import.
type ImportOptions struct {
	// ListIDs restricts the import to these task lists; empty means all.
	ListIDs []string
	// IncludeCompleted imports completed tasks as done.
	IncludeCompleted bool
	// DryRun maps tasks without creating them.
	DryRun bool
	Logger *slog.Logger
}

// ImportResult summarizes an import.
type ImportResult struct {
	Lists    int
	Imported int
	Skipped  int
	// Inputs holds every mapped task, in import order.
	Inputs []tasks.Input
}

// Import copies Google tasks into the local store for ownerID.
func Import(ctx context.Context, src Source, dst Creator, ownerID string, opts ImportOptions) (ImportResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithOperation(logger, "google_import")

	lists, err := src.ListTaskLists(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	lists = selectLists(lists, opts.ListIDs)

	var res ImportResult
	for _, tl := range lists {
		items, err := src.ListTasks(ctx, tl.ID, opts.IncludeCompleted)
		if err != nil {
			return res, err
		}
		res.Lists++

		for _, item := range items {
			in, ok := ToInput(item)
			if !ok || (!opts.IncludeCompleted && in.Status == tasks.StatusDone) {
				res.Skipped++
				continue
			}
			res.Inputs = append(res.Inputs, in)
			if opts.DryRun {
				continue
			}
			if _, err := dst.Create(ctx, ownerID, in); err != nil {
				return res, fmt.Errorf("failed to import %q from list %q: %w", in.Title, tl.Title, err)
			}
			res.Imported++
		}
		logger.Info("imported task list",
			slog.String("list", tl.Title),
			slog.Int("tasks", len(items)))
	}
	return res, nil
}

func selectLists(lists []TaskList, ids []string) []TaskList {
	if len(ids) == 0 {
		return lists
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []TaskList
	for _, tl := range lists {
		if want[tl.ID] || want[tl.Title] {
			out = append(out, tl)
		}
	}
	return out
}

// ToInput maps a Google task onto a taskcal task. Deleted and untitled tasks
// are rejected. Over-long fields are truncated to the taskcal limits.
func ToInput(t Task) (tasks.Input, bool) {
	title := strings.TrimSpace(t.Title)
	if t.Deleted || title == "" {
		return tasks.Input{}, false
	}

	in := tasks.Input{
		Title:       truncate(title, tasks.MaxTitleLength),
		Description: truncate(t.Notes, tasks.MaxDescriptionLength),
		Status:      tasks.StatusPending,
	}
	if t.Status == StatusCompleted {
		in.Status = tasks.StatusDone
	}
	// Google stores the due day at midnight UTC; the time part is unused.
	if !t.Due.IsZero() {
		in.Due = t.Due.UTC().Format(calendar.DateLayout)
	}
	return in, true
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
