// Package logger configures the process-wide slog handler.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/talgya/starfield/internal/config"
)

// Init installs the default logger writing to stdout.
func Init(cfg config.LoggingConfig) {
	InitWriter(os.Stdout, cfg)
}

// InitWriter installs the default logger writing to w.
func InitWriter(w io.Writer, cfg config.LoggingConfig) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.With("component", "logger").Debug("logger initialized",
		"level", cfg.Level,
		"json_format", cfg.JSONFormat,
	)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
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
