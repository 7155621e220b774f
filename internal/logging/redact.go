package logging

import (
	"context"
	"log/slog"
)

// redactedKeys are attribute keys whose values identify a user session.
var redactedKeys = map[string]bool{
	"session_id": true,
	"sessionid":  true,
	"cookie":     true,
}

const keepPrefix = 8

// RedactHandler wraps an slog.Handler and shortens session identifiers so log lines
// can be correlated without exposing the cookie value.
type RedactHandler struct {
	handler slog.Handler
}

// NewRedactHandler wraps handler. A nil handler falls back to slog.Default().Handler().
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(out)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	if !redactedKeys[a.Key] {
		return a
	}
	return slog.String(a.Key, Shorten(a.Value.String()))
}

// Shorten keeps the first characters of an identifier.
func Shorten(id string) string {
	if len(id) <= keepPrefix {
		return id
	}
	return id[:keepPrefix] + "..."
}
