package logger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// Middleware attaches a trace-scoped logger to the request context and logs
// the start and finish of every request.
func Middleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			reqLogger := base.With("trace_id", traceID)
			httpLogger := reqLogger.With("http_method", r.Method, "http_path", r.URL.Path, "remote_addr", r.RemoteAddr)

			ctx := WithTraceID(WithContext(r.Context(), reqLogger), traceID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set(TraceHeader, traceID)
			start := time.Now()

			httpLogger.Debug("request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			httpLogger.Info("request finished",
				"status_code", ww.Status(),
				"bytes_written", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
