package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	ctxLoggerKey        struct{}
	ctxCorrelationIDKey struct{}
	ctxTraceparentKey   struct{}
)

// LoggerFromContext returns the logger stored by WithLogger, RequestLogger or
// WithFields, else the process-wide logger.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLoggerKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return Logger()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// WithFields returns a context whose logger carries the extra fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, LoggerFromContext(ctx).With(fields...))
}

// CorrelationID is the Cloud Trace resource or, failing that, the request ID
// of the request being served. Empty outside a request.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxCorrelationIDKey{}).(string)
	return id
}

func withCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxCorrelationIDKey{}, id)
}

// WithTraceparent makes tp the trace outgoing requests made with ctx join.
// The logger gains a traceId field so client and server lines can be matched.
func WithTraceparent(ctx context.Context, tp Traceparent) context.Context {
	ctx = context.WithValue(ctx, ctxTraceparentKey{}, tp)
	return WithFields(ctx, zap.String("traceId", tp.TraceID))
}

// TraceparentFromContext returns the trace set by WithTraceparent or received
// by RequestLogger.
func TraceparentFromContext(ctx context.Context) (Traceparent, bool) {
	if ctx == nil {
		return Traceparent{}, false
	}
	tp, ok := ctx.Value(ctxTraceparentKey{}).(Traceparent)
	return tp, ok
}

// LogInfo writes an informational message using the request-aware logger.
func LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(ctx, zapcore.InfoLevel, msg, nil, fields)
}

// LogWarn writes a warning using the request-aware logger.
func LogWarn(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(ctx, zapcore.WarnLevel, msg, nil, fields)
}

// LogError writes an error entry; err, when non-nil, becomes the error field.
func LogError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	logAt(ctx, zapcore.ErrorLevel, msg, err, fields)
}

// LogFatal logs with fatal severity and terminates the process.
func LogFatal(ctx context.Context, msg string, err error, fields ...zap.Field) {
	logAt(ctx, zapcore.FatalLevel, msg, err, fields)
}

func logAt(ctx context.Context, level zapcore.Level, msg string, err error, fields []zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	LoggerFromContext(ctx).Log(level, msg, fields...)
}
