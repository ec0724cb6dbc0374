package main

import (
	"log/slog"
	"os"

	"github.com/wudi/inventorkit/observability"
)

// slogLogger adapts log/slog to the decoder's logger interface.
type slogLogger struct {
	l *slog.Logger
}

func newSlogLogger(verbose bool) observability.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

func attrs(fields []observability.Field) []any {
	out := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		out = append(out, f.Key(), f.Value())
	}
	return out
}

func (s *slogLogger) Debug(msg string, fields ...observability.Field) {
	s.l.Debug(msg, attrs(fields)...)
}

func (s *slogLogger) Info(msg string, fields ...observability.Field) {
	s.l.Info(msg, attrs(fields)...)
}

func (s *slogLogger) Warn(msg string, fields ...observability.Field) {
	s.l.Warn(msg, attrs(fields)...)
}

func (s *slogLogger) Error(msg string, fields ...observability.Field) {
	s.l.Error(msg, attrs(fields)...)
}

func (s *slogLogger) With(fields ...observability.Field) observability.Logger {
	return &slogLogger{l: s.l.With(attrs(fields)...)}
}
