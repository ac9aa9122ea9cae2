package observability

import (
	"context"
	"log/slog"
	"testing"
)

func TestContextWithLoggerAndLoggerFromContext(t *testing.T) {
	lg := slog.Default()

	baseCtx := context.Background()

	ctxWithLogger := ContextWithLogger(baseCtx, lg)
	if ctxWithLogger == baseCtx {
		t.Fatal("expected a derived context when attaching a logger")
	}

	if got := LoggerFromContext(ctxWithLogger); got != lg {
		t.Fatalf("LoggerFromContext did not return original logger, got %v", got)
	}

	// When logger is nil, original context should be returned unchanged
	if got := ContextWithLogger(baseCtx, nil); got != baseCtx {
		t.Fatal("expected original context when logger is nil")
	}

	// Default logger should be returned when context has no logger
	if got := LoggerFromContext(context.Background()); got == nil {
		t.Fatal("expected default logger for empty context")
	}
}

func TestContextWithRunIDAndRunIDFromContext(t *testing.T) {
	ctx := context.Background()
	runID := "01J9ZX2M4T"
	ctxWithID := ContextWithRunID(ctx, runID)

	if ctxWithID == ctx {
		t.Fatal("expected a derived context when setting run ID")
	}

	if got := RunIDFromContext(ctxWithID); got != runID {
		t.Fatalf("RunIDFromContext() = %q, want %q", got, runID)
	}

	if got := RunIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string when no run ID present, got %q", got)
	}
}

func TestContextWithRunID_EmptyRunID(t *testing.T) {
	ctx := context.Background()
	// Empty run ID should return original context
	if got := ContextWithRunID(ctx, ""); got != ctx {
		t.Fatal("expected original context when run ID is empty")
	}
}
