package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/baladiya/citizen-portal/internal/systemlog"
)

// NewLogger returns a logger writing to stdout and, when buf is non-nil, into
// the in-memory system log.
func NewLogger(cfg *Config, buf *systemlog.Buffer) *slog.Logger {
	return slog.New(newHandler(cfg, os.Stdout, buf))
}

func newHandler(cfg *Config, w io.Writer, buf *systemlog.Buffer) slog.Handler {
	opts := &slog.HandlerOptions{AddSource: true}
	var out slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		out = slog.NewJSONHandler(w, opts)
	} else {
		out = slog.NewTextHandler(w, opts)
	}
	if buf == nil {
		return out
	}
	return fanout{out, systemlog.NewHandler(buf, slog.LevelInfo)}
}

// fanout sends every record to each enabled handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
