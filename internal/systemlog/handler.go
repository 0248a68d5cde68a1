package systemlog

import (
	"context"
	"log/slog"
	"strings"
)

// SourceKey is the attribute naming the component that emitted a record.
const SourceKey = "component"

// Handler is an slog.Handler that copies records into a Buffer.
type Handler struct {
	buf    *Buffer
	level  slog.Leveler
	source string
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a Handler writing records at or above level into buf.
func NewHandler(buf *Buffer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{buf: buf, level: level, source: "app"}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	source := h.source
	details := make(map[string]any, len(h.attrs)+rec.NumAttrs())
	for _, a := range h.attrs {
		addAttr(details, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == SourceKey && prefix == "" {
			source = a.Value.String()
			return true
		}
		addAttr(details, prefix, a)
		return true
	})
	if len(details) == 0 {
		details = nil
	}
	h.buf.Add(levelOf(rec.Level), source, rec.Message, details)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		if a.Key == SourceKey && prefix == "" {
			next.source = a.Value.String()
			continue
		}
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		buf:    h.buf,
		level:  h.level,
		source: h.source,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func addAttr(details map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(details, key, ga)
		}
		return
	}
	if err, ok := a.Value.Any().(error); ok {
		details[key] = err.Error()
		return
	}
	details[key] = a.Value.Any()
}

func levelOf(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}
