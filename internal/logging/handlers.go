package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// Fanout sends each record to every member that accepts its level.
type Fanout []slog.Handler

// NewFanout drops nil handlers.
func NewFanout(handlers ...slog.Handler) Fanout {
	return slices.DeleteFunc(slices.Clone(handlers), func(h slog.Handler) bool { return h == nil })
}

func (f Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

// Handle keeps going past a failing member and joins the errors.
func (f Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// ContextProvider returns attributes added to every record, such as the
// number of requests served so far.
type ContextProvider func() []slog.Attr

// contextual appends the provider's attributes at handle time, so the values
// are current for every record.
type contextual struct {
	slog.Handler
	provider ContextProvider
}

// WithContext wraps h. A nil provider returns h unchanged.
func WithContext(h slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return h
	}
	return contextual{Handler: h, provider: provider}
}

func (c contextual) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(c.provider()...)
	return c.Handler.Handle(ctx, r)
}

func (c contextual) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextual{Handler: c.Handler.WithAttrs(attrs), provider: c.provider}
}

func (c contextual) WithGroup(name string) slog.Handler {
	return contextual{Handler: c.Handler.WithGroup(name), provider: c.provider}
}
