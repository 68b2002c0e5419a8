package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the service logger and installs it as the process default,
// so package-level slog calls in middleware and infrastructure carry the
// service attribute too.
func Setup(service, level string) *slog.Logger {
	logger := NewWithWriter(os.Stdout, service, level)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter builds a JSON logger writing to w. Every record carries the
// service name so api and worker output can be told apart when aggregated.
func NewWithWriter(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// ParseLevel maps a config string to a slog level, defaulting to info for
// anything unrecognized rather than failing startup over a typo.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
