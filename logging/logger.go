// Package logging provides a small abstraction over log/slog so the rest of
// the codebase depends on a minimal interface while callers may plug in any
// structured logger. Helpers cover the two log events that matter for
// observing this service: completion-provider calls and reservations.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal logging interface used throughout the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NewJSONLogger creates a Logger writing JSON records at the given level.
func NewJSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stdout
	}
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewTextLogger creates a Logger writing human-readable records.
func NewTextLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return NewSlogAdapter(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// WithComponent returns a Logger that tags every record with a component
// name. Falls back to the original logger when it is not slog-backed.
func WithComponent(l Logger, component string) Logger {
	if sa, ok := l.(*SlogAdapter); ok {
		return &SlogAdapter{Logger: sa.Logger.With(slog.String("component", component))}
	}
	return l
}

// LogProviderCall records a completion-provider round trip. Provider errors
// are logged server-side only; they are never surfaced to the end user.
func LogProviderCall(l Logger, provider, model string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("completion provider call failed",
			"provider", provider, "model", model, "duration", dur, "error", err.Error())
		return
	}
	l.Info("completion provider call completed",
		"provider", provider, "model", model, "duration", dur)
}

// LogReservation records a confirmed reservation and its email outcome.
func LogReservation(l Logger, reservationID, bookID, studentID, emailStatus string) {
	l.Info("reservation confirmed",
		"reservation_id", reservationID,
		"book_id", bookID,
		"student_id", studentID,
		"email_status", emailStatus)
}

// NoOpLogger discards all log messages. Useful for tests.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}
