package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// API listener defaults.
const (
	DefaultAPIAddr           = ":8080"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// APIServerConfig configures an APIServer.
type APIServerConfig struct {
	Addr string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	RateLimit  float64
	RateBurst  int
	TrustProxy bool

	// MCPHandler, when set, is mounted at /mcp behind bearer auth.
	MCPHandler http.Handler
}

// APIServer serves the REST API, health endpoints and optionally MCP over
// HTTP on one listener.
type APIServer struct {
	cfg        APIServerConfig
	sc         *ServerContext
	health     *HealthChecker
	limiter    *RateLimiter
	mux        *http.ServeMux
	httpServer *http.Server
	logger     *slog.Logger

	addrMu sync.RWMutex
	addr   string
}

// NewAPIServer builds the handler chain: security headers, instrumentation,
// remote IP capture, rate limiting, then the routes. Health endpoints skip
// the rate limiter.
func NewAPIServer(sc *ServerContext, a *api.API, health *HealthChecker, cfg APIServerConfig) (*APIServer, error) {
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("both TLS certificate and key files must be provided to enable HTTPS")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAPIAddr
	}
	if health == nil {
		health = NewHealthChecker(sc)
	}

	s := &APIServer{
		cfg:     cfg,
		sc:      sc,
		health:  health,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy),
		mux:     http.NewServeMux(),
		logger:  logging.WithComponent(sc.Logger(), "http"),
		addr:    cfg.Addr,
	}

	health.RegisterHealthEndpoints(s.mux)
	a.Register(s.mux)
	if cfg.MCPHandler != nil {
		s.mux.Handle("/mcp", sc.Auth().Middleware(cfg.MCPHandler))
	}

	var h http.Handler = skipLimitForHealth(s.mux, s.limiter.Middleware(sc.Metrics(), s.route, s.mux))
	h = withRemoteIP(s.limiter, h)
	h = instrument(sc.Metrics(), s.logger, s.route, h)
	h = securityHeaders(h)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return sc.Context() },
	}
	return s, nil
}

// Handler returns the full handler chain, for tests.
func (s *APIServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// skipLimitForHealth sends liveness and readiness requests to direct and
// everything else to limited.
func skipLimitForHealth(direct, limited http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz", "/readyz", "/healthz/detailed":
			direct.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// route returns the metrics label of the pattern r will be dispatched to.
func (s *APIServer) route(r *http.Request) string {
	_, pattern := s.mux.Handler(r)
	return instrumentation.RouteLabel(pattern)
}

// TLSEnabled reports whether the server serves HTTPS.
func (s *APIServer) TLSEnabled() bool {
	return s.cfg.TLSCertFile != ""
}

// Start binds the listener, closes ready (if non-nil) and serves until
// Shutdown.
func (s *APIServer) Start(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	addr := ln.Addr().String()
	s.addrMu.Lock()
	s.addr = addr
	s.addrMu.Unlock()

	go s.pruneLimiters()

	scheme := "http"
	if s.TLSEnabled() {
		scheme = "https"
	}
	s.logger.Info("starting API server",
		slog.String("addr", addr),
		slog.String("scheme", scheme),
		slog.Bool("mcp", s.cfg.MCPHandler != nil))
	if ready != nil {
		close(ready)
	}

	if s.TLSEnabled() {
		return s.httpServer.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	}
	return s.httpServer.Serve(ln)
}

func (s *APIServer) pruneLimiters() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.sc.Context().Done():
			return
		case <-ticker.C:
			s.limiter.Prune()
		}
	}
}

// Addr returns the listen address; after Start it is the bound address.
func (s *APIServer) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// URL returns the base URL of the running server.
func (s *APIServer) URL() string {
	scheme := "http"
	if s.TLSEnabled() {
		scheme = "https"
	}
	addr := s.Addr()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return scheme + "://" + addr
}

// Shutdown marks the server not ready and drains connections.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
