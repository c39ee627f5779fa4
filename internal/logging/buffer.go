package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one record retained by a BufferHandler.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// buffer is the ring shared by a BufferHandler and every handler derived from
// it through WithAttrs/WithGroup.
type buffer struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// BufferHandler is a slog.Handler that keeps the most recent records in
// memory, so a command can show what the engine was doing when a conversion
// failed.
type BufferHandler struct {
	buf    *buffer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewBufferHandler returns a handler retaining at most maxEntries records
// (1000 when maxEntries <= 0) at or above level.
func NewBufferHandler(maxEntries int, level slog.Leveler) *BufferHandler {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &BufferHandler{
		buf:   &buffer{entries: make([]Entry, 0, maxEntries), max: maxEntries},
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		addAttr(attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, prefix, a)
		return true
	})

	entry := Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	}

	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	if len(h.buf.entries) == h.buf.max {
		copy(h.buf.entries, h.buf.entries[1:])
		h.buf.entries = h.buf.entries[:len(h.buf.entries)-1]
	}
	h.buf.entries = append(h.buf.entries, entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	prefix := strings.Join(h.groups, ".")
	clone.attrs = append(clone.attrs[:len(clone.attrs):len(clone.attrs)], qualify(prefix, attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(clone.groups[:len(clone.groups):len(clone.groups)], name)
	return &clone
}

// Entries returns a copy of every retained record, oldest first.
func (h *BufferHandler) Entries() []Entry {
	return h.Recent(0)
}

// Recent returns up to count of the newest records, oldest first. A count
// <= 0 returns all of them.
func (h *BufferHandler) Recent(count int) []Entry {
	h.buf.mu.RLock()
	defer h.buf.mu.RUnlock()
	if count <= 0 || count > len(h.buf.entries) {
		count = len(h.buf.entries)
	}
	out := make([]Entry, count)
	copy(out, h.buf.entries[len(h.buf.entries)-count:])
	return out
}

// Search returns the records whose message, attribute key or attribute value
// contains query, case-insensitively.
func (h *BufferHandler) Search(query string) []Entry {
	query = strings.ToLower(query)
	h.buf.mu.RLock()
	defer h.buf.mu.RUnlock()
	var matches []Entry
	for _, e := range h.buf.entries {
		if entryContains(e, query) {
			matches = append(matches, e)
		}
	}
	return matches
}

// Clear drops every retained record.
func (h *BufferHandler) Clear() {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.entries = h.buf.entries[:0]
}

func entryContains(e Entry, query string) bool {
	if strings.Contains(strings.ToLower(e.Message), query) {
		return true
	}
	for k, v := range e.Attrs {
		if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

func qualify(prefix string, attrs []slog.Attr) []slog.Attr {
	if prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + "." + a.Key, Value: a.Value}
	}
	return out
}

func addAttr(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.String()
}
