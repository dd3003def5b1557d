package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the application logger. Production output is JSON with
// RFC3339Nano timestamps so log aggregators can sort reliably; everything
// else gets the human-readable text handler.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl := parseLevel(level)

	if env == "prod" {
		opts := &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		}
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// parseLevel maps a LOG_LEVEL value to a slog level, falling back to info.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		slog.Default().Warn("unrecognized log level, using info", slog.String("value", level))
		return slog.LevelInfo
	}
}
