// Package logger builds the process-wide slog logger from configuration.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/config"
)

// New creates a slog.Logger per the log config. Unknown levels fall back to
// info, unknown formats to text.
func New(cfg config.LogConfig) *slog.Logger {
	return slog.New(NewHandler(cfg))
}

// NewHandler builds the base handler for New. Callers that want to layer
// additional handlers on top (telemetry mirroring) use this directly.
func NewHandler(cfg config.LogConfig) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.ToLower(cfg.Format) == "json" {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}
