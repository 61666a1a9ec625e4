package logging

import (
	"context"
	"net/http"
	"slices"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger puts a request-scoped zap logger carrying Cloud Trace metadata
// and the request ID into the context. A valid incoming traceparent is kept
// in the context as well.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			projectID := resolveProjectID()
			reqID := chimiddleware.GetReqID(r.Context())
			tp, traced := ParseTraceparent(r.Header.Get(TraceparentHeader))

			ctx := r.Context()
			correlation := reqID
			if traced {
				ctx = context.WithValue(ctx, ctxTraceparentKey{}, tp)
				correlation = firstNonEmpty(tp.resource(projectID), reqID)
			}
			ctx = withCorrelationID(ctx, correlation)
			ctx = WithLogger(ctx, requestLogger(Logger(), tp, traced, projectID, reqID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogger writes one summary line per request. Requests whose path is in
// skip (health checks) are served without a log line.
func AccessLogger(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(skip, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			logger := LoggerFromContext(r.Context())
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn("request completed", fields...)
				return
			}
			logger.Info("request completed", fields...)
		})
	}
}
