package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const loggerKey ContextKey = "logger"

// RequestLogger injects a request-scoped logger into the context and logs the
// outcome of every request.
func RequestLogger(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			requestLogger := baseLogger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("X-Request-ID", requestID)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(WithLogger(r.Context(), requestLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			requestLogger.Info("request completed",
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}

// WithLogger returns a copy of ctx carrying logger
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves the request-scoped logger, falling back to slog.Default
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
