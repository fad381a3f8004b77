package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/taskcal/internal/api"
	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/instrumentation"
)

// Rate limit defaults.
const (
	DefaultRateLimit = 10
	DefaultRateBurst = 20

	limiterIdleTTL = 10 * time.Minute
)

// RateLimiter is a token bucket per client IP.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipLimiter
	limit      rate.Limit
	burst      int
	trustProxy bool
	now        func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per second per IP with the given
// burst. trustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
func NewRateLimiter(perSecond float64, burst int, trustProxy bool) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	return &RateLimiter{
		limiters:   make(map[string]*ipLimiter),
		limit:      rate.Limit(perSecond),
		burst:      burst,
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	now := rl.now()
	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastSeen = now
	rl.mu.Unlock()

	return l.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than limiterIdleTTL and returns how
// many remain.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, l := range rl.limiters {
		if now.Sub(l.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
	return len(rl.limiters)
}

// ClientIP returns the address used for rate limiting and audit records.
func (rl *RateLimiter) ClientIP(r *http.Request) string {
	return clientIP(r, rl.trustProxy)
}

// Middleware answers 429 to clients over their budget. route names the
// matched route for the rate-limited counter.
func (rl *RateLimiter) Middleware(metrics *instrumentation.Metrics, route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.ClientIP(r)) {
			metrics.RecordRateLimited(r.Context(), route(r))
			w.Header().Set("Retry-After", "1")
			api.WriteError(w, http.StatusTooManyRequests, api.CodeRateLimited, "rate limit exceeded, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address. Proxy headers are only honoured
// when trustProxy is set; X-Forwarded-For uses the last hop, the one added
// by the trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withRemoteIP stores the client address for audit records.
func withRemoteIP(rl *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.ContextWithRemoteIP(r.Context(), rl.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
