package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a text slog.Logger at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
