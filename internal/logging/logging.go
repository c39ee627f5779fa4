// Package logging builds the structured loggers used by nudi: JSON records to
// an optional (rotated) log file plus a bounded in-memory buffer of recent
// records.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is the minimum level recorded by every sink.
	Level slog.Level
	// File receives JSON records when non-nil.
	File io.Writer
	// BufferSize bounds the in-memory buffer (1000 when <= 0).
	BufferSize int
}

// Logger couples a slog.Logger with the buffer it writes to.
type Logger struct {
	*slog.Logger
	buffer *BufferHandler
}

// New returns a Logger writing to opts.File (if set) and an in-memory buffer.
func New(opts Options) *Logger {
	buf := NewBufferHandler(opts.BufferSize, opts.Level)
	handlers := []slog.Handler{buf}
	if opts.File != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.File, &slog.HandlerOptions{Level: opts.Level}))
	}
	return &Logger{
		Logger: slog.New(fanout(handlers)),
		buffer: buf,
	}
}

// Buffer returns the in-memory buffer behind l.
func (l *Logger) Buffer() *BufferHandler {
	return l.buffer
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel accepts debug, info, warn and error (case-insensitive). The
// empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
	return level, nil
}

// fanout dispatches every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
