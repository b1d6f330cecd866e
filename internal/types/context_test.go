package types

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestWithRequestID_GetRequestID(t *testing.T) {
	t.Run("round-trip", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-abc")
		if got := GetRequestID(ctx); got != "req-abc" {
			t.Errorf("GetRequestID() = %q, want %q", got, "req-abc")
		}
	})

	t.Run("missing returns empty string", func(t *testing.T) {
		if got := GetRequestID(context.Background()); got != "" {
			t.Errorf("GetRequestID() = %q, want empty", got)
		}
	})
}

func TestLoggerFromContext(t *testing.T) {
	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Run("stored logger wins", func(t *testing.T) {
		ctx := WithLogger(context.Background(), stored)
		if got := LoggerFromContext(ctx, fallback); got != stored {
			t.Error("expected the stored logger")
		}
	})

	t.Run("fallback when absent", func(t *testing.T) {
		if got := LoggerFromContext(context.Background(), fallback); got != fallback {
			t.Error("expected the fallback logger")
		}
	})

	t.Run("default when no fallback", func(t *testing.T) {
		if got := LoggerFromContext(context.Background(), nil); got != slog.Default() {
			t.Error("expected slog.Default()")
		}
	})
}
