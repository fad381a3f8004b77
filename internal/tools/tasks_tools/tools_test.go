package tasks_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/batch"
	"github.com/teemow/taskcal/internal/tools/tooltest"
)

func newEnv(t *testing.T, opts tooltest.Options) *tooltest.Env {
	t.Helper()
	env := tooltest.New(t, opts)
	require.NoError(t, RegisterTasksTools(env.Server, env.SC))
	return env
}

func TestRegisterTasksTools(t *testing.T) {
	env := newEnv(t, tooltest.Options{})
	assert.ElementsMatch(t, []string{
		"tasks_list", "tasks_get", "tasks_create", "tasks_update", "tasks_complete", "tasks_delete",
	}, env.ToolNames())
}

func TestRegisterTasksTools_ReadOnly(t *testing.T) {
	env := newEnv(t, tooltest.Options{ReadOnly: true})
	assert.ElementsMatch(t, []string{"tasks_list", "tasks_get"}, env.ToolNames())
}

func TestTasksCreateAndList(t *testing.T) {
	env := newEnv(t, tooltest.Options{})

	res, err := env.Call(t, "tasks_create", map[string]any{
		"title":       "  Pay rent ",
		"description": "landlord",
		"due":         "2024-03-01",
	})
	require.NoError(t, err)
	require.False(t, res.IsError, tooltest.Text(t, res))

	var created tasks.Task
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &created))
	assert.Equal(t, "Pay rent", created.Title)
	assert.Equal(t, "2024-03-01", created.Due)
	assert.Equal(t, env.Principal.UserID, created.OwnerID)

	_, err = env.Call(t, "tasks_create", map[string]any{"title": "Someday"})
	require.NoError(t, err)

	res, err = env.Call(t, "tasks_list", map[string]any{"dueFrom": "2024-03-01", "dueTo": "2024-03-31"})
	require.NoError(t, err)
	var list []tasks.Task
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	res, err = env.Call(t, "tasks_list", map[string]any{"status": "done"})
	require.NoError(t, err)
	assert.JSONEq(t, "[]", tooltest.Text(t, res))
}

func TestTasksCreate_Invalid(t *testing.T) {
	env := newEnv(t, tooltest.Options{})

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing title", args: map[string]any{}},
		{name: "blank title", args: map[string]any{"title": "   "}},
		{name: "title not a string", args: map[string]any{"title": 7}},
		{name: "impossible date", args: map[string]any{"title": "x", "due": "2023-02-29"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Call(t, "tasks_create", tt.args)
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestTasksUpdate(t *testing.T) {
	env := newEnv(t, tooltest.Options{})
	task, err := env.Tasks.Create(context.Background(), env.Principal.UserID, tasks.Input{Title: "Draft", Due: "2024-05-10"})
	require.NoError(t, err)

	res, err := env.Call(t, "tasks_update", map[string]any{"id": task.ID, "title": "Final", "due": ""})
	require.NoError(t, err)
	require.False(t, res.IsError, tooltest.Text(t, res))

	got, err := env.Tasks.Get(context.Background(), env.Principal.UserID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Empty(t, got.Due)

	res, err = env.Call(t, "tasks_update", map[string]any{"id": task.ID})
	require.NoError(t, err)
	assert.True(t, res.IsError, "an empty patch is rejected")

	res, err = env.Call(t, "tasks_update", map[string]any{"id": "missing", "title": "x"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, tooltest.Text(t, res), "not found")
}

func TestTasksCompleteAndDelete_Batch(t *testing.T) {
	env := newEnv(t, tooltest.Options{})
	ctx := context.Background()
	a, err := env.Tasks.Create(ctx, env.Principal.UserID, tasks.Input{Title: "a"})
	require.NoError(t, err)
	b, err := env.Tasks.Create(ctx, env.Principal.UserID, tasks.Input{Title: "b"})
	require.NoError(t, err)

	res, err := env.Call(t, "tasks_complete", map[string]any{"taskIds": []any{a.ID, "missing", b.ID}})
	require.NoError(t, err)
	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)

	done, err := env.Tasks.List(ctx, env.Principal.UserID, tasks.Filter{Status: tasks.StatusDone})
	require.NoError(t, err)
	assert.Len(t, done, 2)

	res, err = env.Call(t, "tasks_delete", map[string]any{"taskIds": a.ID})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &br))
	assert.Equal(t, 1, br.Successful)

	_, err = env.Tasks.Get(ctx, env.Principal.UserID, a.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestTasksGet_OtherOwnerIsNotFound(t *testing.T) {
	env := newEnv(t, tooltest.Options{})
	ctx := context.Background()
	someone, err := env.SC.Auth().Register(ctx, "other@example.com", "Other", "another secret pw")
	require.NoError(t, err)
	other, err := env.Tasks.Create(ctx, someone.ID, tasks.Input{Title: "private"})
	require.NoError(t, err)

	res, err := env.Call(t, "tasks_get", map[string]any{"taskIds": other.ID})
	require.NoError(t, err)
	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &br))
	assert.Equal(t, 1, br.Failed)
}

func TestTasksTools_NoPrincipal(t *testing.T) {
	env := newEnv(t, tooltest.Options{Anonymous: true})

	res, err := env.Call(t, "tasks_list", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, tooltest.Text(t, res), "--user")
}
