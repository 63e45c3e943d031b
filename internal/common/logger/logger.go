// Package logger provides the structured logger used by the monzo programs
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates a new structured logger with the given options
func New(opts ...Option) *slog.Logger {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: config.level,
	}

	var handler slog.Handler
	switch config.format {
	case FormatText:
		handler = slog.NewTextHandler(config.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(config.output, handlerOpts)
	}

	return slog.New(handler)
}

type config struct {
	level  slog.Level
	output io.Writer
	format string
}

func defaultConfig() *config {
	return &config{
		level:  LevelInfo,
		output: os.Stdout,
		format: FormatJSON,
	}
}

// Option configures the logger
type Option func(*config)

// WithLevel sets the minimum log level
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithFormat selects the handler format, FormatJSON or FormatText
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = strings.ToLower(strings.TrimSpace(format))
	}
}

// ParseLevel converts a level name into a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
