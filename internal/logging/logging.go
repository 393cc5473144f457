// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnv names the environment variable consulted when no level flag is set.
const LevelEnv = "VSSPLOT_LOG_LEVEL"

type Option func(*options)

type options struct {
	writer io.Writer
	json   bool
}

// WithWriter sends log output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithJSON switches from the text handler to the JSON handler.
func WithJSON() Option {
	return func(o *options) {
		o.json = true
	}
}

// New returns a logger at the given level. Unknown levels fall back to info.
func New(level string, opts ...Option) *slog.Logger {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	writer := cfg.writer
	if writer == nil {
		writer = os.Stderr
	}

	handlerOptions := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(writer, handlerOptions)
	} else {
		handler = slog.NewTextHandler(writer, handlerOptions)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// LevelFromEnv returns the level named by LevelEnv, or fallback when unset.
func LevelFromEnv(fallback string) string {
	if v := os.Getenv(LevelEnv); v != "" {
		return v
	}
	return fallback
}

// Err is a convenience attribute for errors.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
