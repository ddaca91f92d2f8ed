package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// ColorTextHandler is a slog.TextHandler whose level name is wrapped in
// an ANSI color, keeping warnings and errors visible when lifecycle
// output scrolls past on a terminal.
type ColorTextHandler struct {
	*slog.TextHandler
	showTime bool
}

// NewColorTextHandler builds a handler writing to w. With showTime
// false the time attribute is suppressed, which suits short-lived CLI
// invocations where the wall clock adds nothing.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions, showTime bool) *ColorTextHandler {
	return &ColorTextHandler{
		TextHandler: slog.NewTextHandler(w, opts),
		showTime:    showTime,
	}
}

// Handle implements slog.Handler.
func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	var color string
	switch {
	case r.Level >= slog.LevelError:
		color = "\033[31m" // red
	case r.Level >= slog.LevelWarn:
		color = "\033[33m" // yellow
	case r.Level >= slog.LevelInfo:
		color = "\033[32m" // green
	default:
		color = "\033[36m" // cyan
	}
	if !h.showTime {
		// TextHandler drops the time attribute for a zero time.
		r.Time = time.Time{}
	}
	r.Message = color + r.Level.String() + "\033[0m  " + r.Message
	return h.TextHandler.Handle(ctx, r)
}
