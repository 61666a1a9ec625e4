package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedContext(level zapcore.Level) (context.Context, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return WithLogger(context.Background(), zap.New(core)), recorded
}

func TestLogHelpersUseContextLogger(t *testing.T) {
	ctx, recorded := observedContext(zapcore.InfoLevel)

	LogInfo(ctx, "info", zap.String("k", "v"))
	LogWarn(ctx, "warn")
	LogError(ctx, "error", errors.New("boom"))

	entries := recorded.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.WarnLevel ||
		entries[2].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected levels: %v %v %v", entries[0].Level, entries[1].Level, entries[2].Level)
	}
	if got := entries[2].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field boom, got %v", got)
	}
}

func TestLogErrorNilError(t *testing.T) {
	ctx, recorded := observedContext(zapcore.ErrorLevel)

	LogError(ctx, "no error attached", nil)

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["error"]; ok {
		t.Fatal("did not expect error field for nil error")
	}
}

func TestWithFieldsExtendsLogger(t *testing.T) {
	ctx, recorded := observedContext(zapcore.InfoLevel)
	ctx = WithFields(ctx, zap.String("component", "signup"))

	LogInfo(ctx, "hello")

	if got := recorded.All()[0].ContextMap()["component"]; got != "signup" {
		t.Fatalf("expected component field, got %v", got)
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	resetLoggerForTest()
	//nolint:staticcheck // nil context is tolerated on purpose
	if LoggerFromContext(nil) != Logger() {
		t.Fatal("expected global logger for nil context")
	}
	ctx := context.WithValue(context.Background(), ctxLoggerKey{}, (*zap.Logger)(nil))
	if LoggerFromContext(ctx) != Logger() {
		t.Fatal("expected global logger for nil logger value")
	}
}

func TestCorrelationID(t *testing.T) {
	if CorrelationID(context.Background()) != "" {
		t.Fatal("expected empty correlation ID")
	}
	if ctx := withCorrelationID(context.Background(), ""); CorrelationID(ctx) != "" {
		t.Fatal("expected empty ID to be ignored")
	}
	ctx := withCorrelationID(context.Background(), "trace-1")
	if got := CorrelationID(ctx); got != "trace-1" {
		t.Fatalf("expected trace-1, got %q", got)
	}
}

func TestWithTraceparent(t *testing.T) {
	ctx, recorded := observedContext(zapcore.InfoLevel)
	if _, ok := TraceparentFromContext(ctx); ok {
		t.Fatal("expected no trace")
	}

	tp := NewTraceparent()
	ctx = WithTraceparent(ctx, tp)
	got, ok := TraceparentFromContext(ctx)
	if !ok || got != tp {
		t.Fatalf("expected %v, got %v", tp, got)
	}

	LogInfo(ctx, "submitting")
	if id := recorded.All()[0].ContextMap()["traceId"]; id != tp.TraceID {
		t.Fatalf("expected traceId field %s, got %v", tp.TraceID, id)
	}
}
