// Package logging builds the structured slog.Logger every binary starts
// with, from the shared config.LoggingConfig section.
package logging

import (
	"log/slog"
	"os"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

// New builds a logger writing to stderr in the configured level and format.
// Unknown levels/formats fall back to info/json rather than failing startup
// over a typo in an operator's config file.
func New(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
