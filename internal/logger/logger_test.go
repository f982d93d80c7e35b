package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil
	// Should not panic without Init
	Info("no init yet", "key", "value")
	With("test").Debug("scoped")
}

func TestInitSetsLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	Init()
	if Logger == nil {
		t.Fatal("Logger should be set after Init")
	}
	if !Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestSetOutputRedirects(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	var buf strings.Builder
	SetOutput(&buf)
	Info("to the buffer", "k", "v")
	if !strings.Contains(buf.String(), "to the buffer") {
		t.Fatalf("expected log line in buffer, got %q", buf.String())
	}
}
