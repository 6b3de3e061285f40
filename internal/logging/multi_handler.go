package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler sends each record to every handler that accepts its level.
// A failing sink does not stop the others; their errors are joined.
type MultiHandler struct {
	sinks []slog.Handler
}

func NewMultiHandler(sinks ...slog.Handler) *MultiHandler {
	return &MultiHandler{sinks: sinks}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if !s.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	sinks := make([]slog.Handler, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = fn(s)
	}
	return &MultiHandler{sinks: sinks}
}
