package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCLILoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCLILogger(&buf, "warn")
	logger.Info("path_a_failed")
	logger.Warn("path_b_failed", "error", "timeout")

	out := buf.String()
	if strings.Contains(out, "path_a_failed") {
		t.Fatalf("info line must be filtered: %s", out)
	}
	if !strings.Contains(out, "path_b_failed") || !strings.Contains(out, "error=timeout") {
		t.Fatalf("warn line missing: %s", out)
	}
}
