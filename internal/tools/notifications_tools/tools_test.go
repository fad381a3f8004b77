package notifications_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/batch"
	"github.com/teemow/taskcal/internal/tools/tooltest"
)

func newEnv(t *testing.T, readOnly bool) *tooltest.Env {
	t.Helper()
	env := tooltest.New(t, tooltest.Options{ReadOnly: readOnly})
	require.NoError(t, RegisterNotificationsTools(env.Server, env.SC))
	return env
}

func listNotifications(t *testing.T, env *tooltest.Env, args map[string]any) []notify.Notification {
	t.Helper()
	res, err := env.Call(t, "notifications_list", args)
	require.NoError(t, err)
	require.False(t, res.IsError, tooltest.Text(t, res))
	var list []notify.Notification
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &list))
	return list
}

func TestRegisterNotificationsTools_ReadOnly(t *testing.T) {
	env := newEnv(t, true)
	assert.Equal(t, []string{"notifications_list"}, env.ToolNames())
}

func TestNotificationsListAndMarkRead(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	assert.Empty(t, listNotifications(t, env, nil))

	task, err := env.Tasks.Create(ctx, env.Principal.UserID, tasks.Input{Title: "Water plants"})
	require.NoError(t, err)
	_, err = env.Tasks.Complete(ctx, env.Principal.UserID, task.ID)
	require.NoError(t, err)

	unread := listNotifications(t, env, nil)
	require.Len(t, unread, 2)

	res, err := env.Call(t, "notifications_mark_read", map[string]any{"ids": []any{unread[0].ID, "missing"}})
	require.NoError(t, err)
	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(t, res)), &br))
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, 1, br.Failed)

	assert.Len(t, listNotifications(t, env, nil), 1)
	assert.Len(t, listNotifications(t, env, map[string]any{"unreadOnly": false}), 2)

	res, err = env.Call(t, "notifications_mark_read", map[string]any{"all": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"marked": 1}`, tooltest.Text(t, res))
	assert.Empty(t, listNotifications(t, env, nil))
}

func TestNotificationsMarkRead_RequiresIDs(t *testing.T) {
	env := newEnv(t, false)

	res, err := env.Call(t, "notifications_mark_read", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
