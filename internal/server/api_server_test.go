package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/store"
	"github.com/teemow/taskcal/internal/tasks"
)

func newTestServerContext(t *testing.T) (*ServerContext, *api.API) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "server.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authSvc, err := auth.NewService(st, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), BcryptCost: 4})
	require.NoError(t, err)
	notifier := notify.NewService(st)
	taskSvc := tasks.NewService(st, tasks.WithEventSink(notifier))

	sc := NewServerContext(context.Background(), ServerContextConfig{
		Auth:   authSvc,
		Tasks:  taskSvc,
		Notify: notifier,
	})
	t.Cleanup(func() { _ = sc.Shutdown() })

	a, err := api.New(api.Config{Auth: authSvc, Tasks: taskSvc, Notify: notifier})
	require.NoError(t, err)
	return sc, a
}

func TestNewAPIServer_TLSPair(t *testing.T) {
	sc, a := newTestServerContext(t)
	_, err := NewAPIServer(sc, a, nil, APIServerConfig{TLSCertFile: "cert.pem"})
	require.Error(t, err)

	s, err := NewAPIServer(sc, a, nil, APIServerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIAddr, s.Addr())
	assert.False(t, s.TLSEnabled())
}

func TestAPIServer_Handler(t *testing.T) {
	sc, a := newTestServerContext(t)
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := sc.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.Email))
	})
	s, err := NewAPIServer(sc, a, nil, APIServerConfig{MCPHandler: mcp})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))

	resp, err = http.Post(srv.URL+"/api/auth/register", "application/json",
		strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))
	require.NoError(t, err)
	var login api.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", string(body))
}

func TestAPIServer_RateLimited(t *testing.T) {
	sc, a := newTestServerContext(t)
	s, err := NewAPIServer(sc, a, nil, APIServerConfig{RateLimit: 0.001, RateBurst: 2})
	require.NoError(t, err)
	h := s.Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)

	// Health endpoints stay reachable for a client over its budget.
	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code, path)
	}
}

func TestAPIServer_AddrConcurrentWithStart(t *testing.T) {
	sc, a := newTestServerContext(t)
	s, err := NewAPIServer(sc, a, nil, APIServerConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.Start(ready) }()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = s.Addr()
				_ = s.URL()
			}
		}()
	}
	wg.Wait()
	<-ready
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())
	assert.True(t, strings.HasPrefix(s.URL(), "http://127.0.0.1:"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestAPIServer_Route(t *testing.T) {
	sc, a := newTestServerContext(t)
	s, err := NewAPIServer(sc, a, nil, APIServerConfig{})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil)
	assert.Equal(t, "/api/tasks/{id}", s.route(r))
}

func TestAPIServer_StartAndShutdown(t *testing.T) {
	sc, a := newTestServerContext(t)
	health := NewHealthChecker(sc)
	s, err := NewAPIServer(sc, a, health, APIServerConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	ready := make(chan struct{})
	errc := make(chan error, 1)
	go func() { errc <- s.Start(ready) }()

	select {
	case <-ready:
	case err := <-errc:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	assert.True(t, strings.HasPrefix(s.URL(), "http://127.0.0.1:"))

	resp, err := http.Get(s.URL() + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, health.IsReady())
	assert.ErrorIs(t, <-errc, http.ErrServerClosed)
}
