package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options tune the handler picked by Setup. Zero values fall back to the
// environment defaults used by Init.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

func Init(env string) {
	Setup(env, Options{})
}

func Setup(env string, opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	format := opts.Format
	level := parseLevel(opts.Level)
	if env == "production" {
		if format == "" {
			format = "json"
		}
		if opts.Level == "" {
			level = slog.LevelInfo
		}
	} else if opts.Level == "" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}
