// Package logging provides a minimal structured logging interface so
// library packages can log without binding callers to a concrete logger.
package logging

import (
	"io"
	"log/slog"
)

// Logger is the minimal logging surface used across neuromesh.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOp discards all messages. It is the default for library code.
type NoOp struct{}

func (NoOp) Debug(string, ...any) {}
func (NoOp) Info(string, ...any)  {}
func (NoOp) Warn(string, ...any)  {}
func (NoOp) Error(string, ...any) {}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.Logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.Logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewTextLogger writes text-formatted logs at the given level to w.
func NewTextLogger(w io.Writer, level slog.Level) Logger {
	return NewSlogAdapter(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
