package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/store"
	"github.com/teemow/taskcal/internal/tasks"
)

func newBackend(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "client.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authSvc, err := auth.NewService(st, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), BcryptCost: 4})
	require.NoError(t, err)
	notifier := notify.NewService(st)
	a, err := api.New(api.Config{Auth: authSvc, Tasks: tasks.NewService(st, tasks.WithEventSink(notifier)), Notify: notifier})
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv, authSvc
}

func loggedIn(t *testing.T) *Client {
	t.Helper()
	srv, authSvc := newBackend(t)
	_, err := authSvc.Register(context.Background(), "ada@example.com", "Ada", "correct horse")
	require.NoError(t, err)

	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	resp, err := c.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, resp.Token, c.Token())
	assert.Equal(t, "ada@example.com", resp.User.Email)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://example.com", "://bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}

func TestClient_Login_Rejected(t *testing.T) {
	srv, _ := newBackend(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "nobody@example.com", "wrong password")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, c.Token())
}

func TestClient_TaskLifecycle(t *testing.T) {
	c := loggedIn(t)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, tasks.Input{Title: "file taxes", Due: "2024-02-29"})
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusPending, created.Status)

	_, err = c.CreateTask(ctx, tasks.Input{Title: "someday"})
	require.NoError(t, err)

	list, err := c.ListTasks(ctx, tasks.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = c.ListTasks(ctx, tasks.Filter{DueFrom: "2024-02-01", DueTo: "2024-02-29"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	title := "file taxes early"
	updated, err := c.UpdateTask(ctx, created.ID, tasks.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	done, err := c.CompleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, done.Done())

	got, err := c.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusDone, got.Status)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	err = c.DeleteTask(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestClient_Month(t *testing.T) {
	c := loggedIn(t)
	ctx := context.Background()
	for _, in := range []tasks.Input{
		{Title: "leap day", Due: "2024-02-29"},
		{Title: "march", Due: "2024-03-01"},
		{Title: "undated"},
	} {
		_, err := c.CreateTask(ctx, in)
		require.NoError(t, err)
	}

	mv, err := c.Month(ctx, calendar.NewMonth(2024, time.February))
	require.NoError(t, err)
	assert.Equal(t, 2024, mv.Year)
	assert.Equal(t, 2, mv.Month)
	require.Len(t, mv.Days, 29)
	assert.Equal(t, "2024-02-29", mv.Days[28].Date)
	require.Len(t, mv.Days[28].Tasks, 1)
	assert.Equal(t, "leap day", mv.Days[28].Tasks[0].Title)
	assert.Equal(t, 1, mv.Unscheduled)
}

func TestClient_FetcherDrivesView(t *testing.T) {
	c := loggedIn(t)
	ctx := context.Background()
	_, err := c.CreateTask(ctx, tasks.Input{Title: "leap day", Due: "2024-02-29"})
	require.NoError(t, err)

	view := calendar.NewView[Task](time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), c)
	require.NoError(t, view.Load(ctx))
	buckets := view.Buckets()
	require.Len(t, buckets, 29)
	assert.Len(t, buckets[28].Tasks, 1)

	c.SetToken("expired")
	err = view.Load(ctx)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Len(t, view.Buckets()[28].Tasks, 1, "failed fetch keeps previous buckets")
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.FetchTasks(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.FetchTasks(context.Background())
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}
