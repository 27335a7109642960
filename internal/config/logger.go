package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Unknown levels fall back to info; any format other than "text" is JSON.
func NewLogger(c Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
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
	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("env", c.Env))
}
