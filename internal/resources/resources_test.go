package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/tasks"
	"github.com/teemow/taskcal/internal/tools/tooltest"
)

func readRequest(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func decodeText(t *testing.T, contents []mcp.ResourceContents) map[string]any {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestRegisterResources(t *testing.T) {
	env := tooltest.New(t, tooltest.Options{})
	require.NoError(t, RegisterResources(env.Server, env.SC))
}

func TestProfile(t *testing.T) {
	env := tooltest.New(t, tooltest.Options{ReadOnly: true})

	contents, err := handleProfile(context.Background(), readRequest(ProfileURI), env.SC)
	require.NoError(t, err)
	got := decodeText(t, contents)
	assert.Equal(t, env.Principal.UserID, got["id"])
	assert.Equal(t, "user@example.com", got["email"])
	assert.Equal(t, true, got["readOnly"])
}

func TestProfile_Anonymous(t *testing.T) {
	env := tooltest.New(t, tooltest.Options{Anonymous: true})
	_, err := handleProfile(context.Background(), readRequest(ProfileURI), env.SC)
	assert.Error(t, err)
}

func TestCalendar(t *testing.T) {
	env := tooltest.New(t, tooltest.Options{})
	_, err := env.Tasks.Create(context.Background(), env.Principal.UserID, tasks.Input{Title: "Leap", Due: "2024-02-29"})
	require.NoError(t, err)

	contents, err := handleCalendar(context.Background(), readRequest(CalendarURIPrefix+"2024-02"), env.SC)
	require.NoError(t, err)
	got := decodeText(t, contents)
	assert.Equal(t, "2024-02", got["month"])
	days, ok := got["days"].([]any)
	require.True(t, ok)
	require.Len(t, days, 29)
	last := days[28].(map[string]any)
	assert.Equal(t, "2024-02-29", last["date"])
	assert.Len(t, last["tasks"], 1)

	_, err = handleCalendar(context.Background(), readRequest(CalendarURIPrefix+"feb"), env.SC)
	assert.Error(t, err)
}
