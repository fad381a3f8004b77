package server

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps streaming responses (MCP over HTTP) working through the
// recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// securityHeaders sets conservative headers on every response. HSTS is
// only sent over TLS.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// instrument wraps next with a server span, request metrics and a debug
// access log line. route resolves the matched ServeMux pattern.
func instrument(metrics *instrumentation.Metrics, logger *slog.Logger, route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		label := route(r)

		ctx, span := instrumentation.StartHTTPSpan(r.Context(), r.Method, label)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrStatus, status))
		if status >= http.StatusInternalServerError {
			instrumentation.SetSpanError(span, errStatus(status))
		}
		span.End()

		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(ctx, r.Method, label, status, elapsed)
		logger.DebugContext(ctx, "http request",
			slog.String("method", r.Method),
			slog.String("route", label),
			slog.Int("status", status),
			logging.Duration(elapsed))
	})
}

type errStatus int

func (e errStatus) Error() string {
	return http.StatusText(int(e))
}
