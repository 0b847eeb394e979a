// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that keeps recent warnings and
// errors in memory so the health endpoint can report them.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Event categories.
const (
	CategoryContent = "content"
	CategoryBuild   = "build"
	CategoryCache   = "cache"
	CategoryHTTP    = "http"
	CategorySystem  = "system"
)

// Event is a recorded log record.
type Event struct {
	Time     time.Time         `json:"time"`
	Level    string            `json:"level"`
	Category string            `json:"category"`
	Message  string            `json:"message"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// Recorder is a bounded ring of events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	total  map[string]int64
}

// NewRecorder keeps the last size events (minimum 1).
func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{events: make([]Event, size), total: make(map[string]int64)}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	r.total[e.Level]++
}

// Recent returns up to n events, newest first.
func (r *Recorder) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}
	n = min(n, count)

	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out
}

// Counts returns how many events were recorded per level since start.
func (r *Recorder) Counts() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.total))
	for k, v := range r.total {
		out[k] = v
	}
	return out
}

// Handler wraps another handler and also records records at or above
// its level into a Recorder.
type Handler struct {
	inner    slog.Handler
	recorder *Recorder
	level    slog.Level
	attrs    []slog.Attr
}

// NewHandler records WARN and above.
func NewHandler(inner slog.Handler, recorder *Recorder) *Handler {
	return NewHandlerWithLevel(inner, recorder, slog.LevelWarn)
}

// NewHandlerWithLevel records records at level and above.
func NewHandlerWithLevel(inner slog.Handler, recorder *Recorder, level slog.Level) *Handler {
	return &Handler{inner: inner, recorder: recorder, level: level}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.recorder.add(h.event(r))
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:    h.inner.WithAttrs(attrs),
		recorder: h.recorder,
		level:    h.level,
		attrs:    append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:    h.inner.WithGroup(name),
		recorder: h.recorder,
		level:    h.level,
		attrs:    h.attrs,
	}
}

func (h *Handler) event(r slog.Record) Event {
	e := Event{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
	}

	collect := func(a slog.Attr) bool {
		if a.Key == "category" {
			e.Category = a.Value.String()
			return true
		}
		if e.Attrs == nil {
			e.Attrs = make(map[string]string)
		}
		e.Attrs[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if e.Category == "" {
		e.Category = inferCategory(r.Message)
	}
	return e
}

func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "prismic") || strings.Contains(msg, "fetch"):
		return CategoryContent
	case strings.Contains(msg, "build") || strings.Contains(msg, "generat"):
		return CategoryBuild
	case strings.Contains(msg, "cache") || strings.Contains(msg, "store") || strings.Contains(msg, "redis"):
		return CategoryCache
	case strings.Contains(msg, "request") || strings.Contains(msg, "render"):
		return CategoryHTTP
	default:
		return CategorySystem
	}
}

// ParseLevel maps a config string to a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
