package buslog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/message"
)

// BusHandler is a slog.Handler that mirrors records at or above a level onto a bus.Bus
// as message.KindLog, and passes every record to the wrapped handler.
type BusHandler struct {
	next  slog.Handler
	bus   bus.Bus
	level slog.Leveler
	attrs []slog.Attr
}

// NewBusHandler creates a new BusHandler. A nil next discards records after mirroring.
func NewBusHandler(next slog.Handler, b bus.Bus, level slog.Leveler) *BusHandler {
	if level == nil {
		level = slog.LevelWarn
	}
	return &BusHandler{next: next, bus: b, level: level}
}

// Enabled reports whether either the bus or the wrapped handler wants the level.
func (h *BusHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle broadcasts the record when it meets the level, then passes it on.
// A broadcast failure never blocks the wrapped handler.
func (h *BusHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		_ = h.bus.Broadcast(&message.Message{
			Kind: message.KindLog,
			Text: h.format(r),
			At:   r.Time,
		})
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *BusHandler) format(r slog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", r.Level, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	return b.String()
}

// WithAttrs returns a new BusHandler whose attributes consist of
// the handler's attributes followed by attrs.
func (h *BusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.next != nil {
		out.next = h.next.WithAttrs(attrs)
	}
	return &out
}

// WithGroup returns a new BusHandler with the given group name applied to the wrapped handler.
func (h *BusHandler) WithGroup(name string) slog.Handler {
	out := *h
	if h.next != nil {
		out.next = h.next.WithGroup(name)
	}
	return &out
}
