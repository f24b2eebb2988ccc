// Package logger provides structured logging for postindex builds.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps a slog.Logger with a level that can be changed after creation.
type Logger struct {
	internal *slog.Logger
	level    *slog.LevelVar
}

// New creates a logger writing text records to stderr at the given level.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a logger writing text records to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(ParseLevel(level))

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		internal: slog.New(handler),
		level:    lvl,
	}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return NewWithWriter("error", io.Discard)
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values map to info.
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

// ValidLevel reports whether level is one of the names ParseLevel understands.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

// With creates a child logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With(args...),
		level:    l.level,
	}
}
