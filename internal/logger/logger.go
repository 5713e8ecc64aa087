// Package logger provides logging utilities for the fetch worker.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured logging functionality.
type Logger struct {
	internal zerolog.Logger
}

// Options configures a Logger.
type Options struct {
	Output io.Writer
	Level  string
	Format string // console or json
}

// New creates a logger from options.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	internal := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()

	return &Logger{internal: internal}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{internal: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Info logs an info level message.
func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info().Fields(args).Msg(msg)
}

// Error logs an error level message.
func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error().Fields(args).Msg(msg)
}

// Debug logs a debug level message.
func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug().Fields(args).Msg(msg)
}

// Warn logs a warning level message.
func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn().Fields(args).Msg(msg)
}

// With creates a child logger with the given key/value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With().Fields(args).Logger(),
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level string) bool {
	return l.internal.GetLevel() <= parseLevel(level)
}
