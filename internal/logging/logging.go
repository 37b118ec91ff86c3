// Package logging provides structured logging for the CLI and libraries.
package logging

import (
	"io"
	"log/slog"
	"os"
)

type Logger struct {
	*slog.Logger
}

var defaultLogger = New(os.Stderr, slog.LevelInfo)

// New creates a text-handler logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// SetVerbose switches the default logger to debug level.
func SetVerbose() {
	defaultLogger = New(os.Stderr, slog.LevelDebug)
}

func Default() *Logger { return defaultLogger }

func SetDefault(l *Logger) { defaultLogger = l }

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
