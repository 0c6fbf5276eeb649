package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("quiet")
	l.Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn line missing: %s", buf.String())
	}
}

func TestNewProductionIsJSON(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	New(&buf, "info").Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("want JSON output, got %s", buf.String())
	}
}

func TestFor(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	For(New(&buf, "info"), "session", "session", "abc").Info("started")
	out := buf.String()
	if !strings.Contains(out, "component=session") || !strings.Contains(out, "session=abc") {
		t.Errorf("missing attributes: %s", out)
	}

	if For(nil, "web") == nil {
		t.Error("For(nil) should fall back to the global logger")
	}
}
