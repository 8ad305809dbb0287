// Package mylog provides the slog.Logger construction helpers shared by the
// toolkit and command packages: a discard logger for defaults, a
// level-parsing helper for CLI/config input, and a buffered test logger.
package mylog

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// NewDiscardLogger returns a logger that drops all records. Used as the
// Runtime default so callers never need a nil check.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDefault returns lg unless it is nil, in which case a discard logger is
// returned.
func OrDefault(lg *slog.Logger) *slog.Logger {
	if lg != nil {
		return lg
	}
	return NewDiscardLogger()
}

// ParseLevel maps a case-insensitive level name to a slog.Level, defaulting
// to slog.LevelInfo for unrecognized input.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewTestLogger returns a logger that writes to an in-memory buffer and to
// t.Log, along with the buffer so tests can assert on log content.
func NewTestLogger(t *testing.T, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w := io.MultiWriter(&buf, testWriter{t})
	lg := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return lg, &buf
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
