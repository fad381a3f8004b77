package calendar_tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/tooltest"
)

// monthJSON mirrors MonthResult with dates as strings.
type monthJSON struct {
	Month string `json:"month"`
	Days  []struct {
		Date  string       `json:"date"`
		Tasks []tasks.Task `json:"tasks"`
	} `json:"days"`
	Unscheduled int `json:"unscheduled"`
}

var fixedNow = time.Date(2024, time.February, 14, 9, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *tooltest.Env {
	t.Helper()
	env := tooltest.New(t, tooltest.Options{})
	require.NoError(t, RegisterCalendarTools(env.Server, env.SC, func() time.Time { return fixedNow }))

	ctx := context.Background()
	for _, in := range []tasks.Input{
		{Title: "Leap day", Due: "2024-02-29"},
		{Title: "Valentine", Due: "2024-02-14"},
		{Title: "Also valentine", Due: "2024-02-14"},
		{Title: "March", Due: "2024-03-01"},
		{Title: "No date"},
	} {
		_, err := env.Tasks.Create(ctx, env.Principal.UserID, in)
		require.NoError(t, err)
	}
	return env
}

func TestCalendarMonth_DefaultsToCurrentMonth(t *testing.T) {
	env := newEnv(t)

	res, err := env.Call(t, "calendar_month", nil)
	require.NoError(t, err)
	require.False(t, res.IsError, tooltest.Text(t, res))

	var got monthJSON
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &got))
	assert.Equal(t, "2024-02", got.Month)
	require.Len(t, got.Days, 2)
	assert.Equal(t, "2024-02-14", got.Days[0].Date)
	assert.Len(t, got.Days[0].Tasks, 2)
	assert.Equal(t, "2024-02-29", got.Days[1].Date)
	assert.Equal(t, 1, got.Unscheduled)
}

func TestCalendarMonth_IncludeEmpty(t *testing.T) {
	env := newEnv(t)

	res, err := env.Call(t, "calendar_month", map[string]any{"month": "2024-03", "includeEmpty": true})
	require.NoError(t, err)

	var got monthJSON
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &got))
	assert.Equal(t, "2024-03", got.Month)
	assert.Len(t, got.Days, 31)
	assert.Len(t, got.Days[0].Tasks, 1)
}

func TestCalendarMonth_Grid(t *testing.T) {
	env := newEnv(t)

	res, err := env.Call(t, "calendar_month", map[string]any{"format": "grid"})
	require.NoError(t, err)
	text := tooltest.Text(t, res)
	assert.Contains(t, text, "February 2024")
	assert.Contains(t, text, "14 (2)")
	assert.Contains(t, text, "2024-02-29  [ ] Leap day")
	assert.Contains(t, text, "1 task(s) without a valid due date")
}

func TestCalendarMonth_BadArguments(t *testing.T) {
	env := newEnv(t)

	for _, args := range []map[string]any{
		{"month": "2024-13"},
		{"month": "February"},
		{"format": "xml"},
		{"includeEmpty": "yes"},
	} {
		res, err := env.Call(t, "calendar_month", args)
		require.NoError(t, err)
		assert.True(t, res.IsError, "args %v", args)
	}
}
