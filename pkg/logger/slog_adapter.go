package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// SlogHandler implements slog.Handler on top of a namespaced Logger, so code
// that expects a *slog.Logger still follows the DEBUG pattern rules.
type SlogHandler struct {
	logger *Logger
	attrs  []slog.Attr
	group  string
}

// NewSlogHandler creates a new slog.Handler that wraps a Logger
func NewSlogHandler(logger *Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled reports whether the handler handles records at the given level.
// All levels are enabled when the underlying logger is.
func (h *SlogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return h.logger.Enabled()
}

// Handle formats the record as "[LEVEL] message key=value ..." and prints it.
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.logger.Enabled() {
		return nil
	}

	var msg strings.Builder
	switch {
	case r.Level >= slog.LevelError:
		msg.WriteString("[ERROR] ")
	case r.Level >= slog.LevelWarn:
		msg.WriteString("[WARN] ")
	case r.Level >= slog.LevelInfo:
		msg.WriteString("[INFO] ")
	default:
		msg.WriteString("[DEBUG] ")
	}
	msg.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&msg, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&msg, a)
		return true
	})

	h.logger.Print(msg.String())
	return nil
}

func (h *SlogHandler) writeAttr(msg *strings.Builder, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	msg.WriteString(" " + key + "=" + a.Value.String())
}

// WithAttrs returns a new Handler carrying the receiver's attributes plus attrs.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SlogHandler{logger: h.logger, attrs: merged, group: h.group}
}

// WithGroup returns a new Handler that prefixes subsequent attribute keys with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, group: group}
}

// NewSlogLogger creates a new slog.Logger for the given namespace
func NewSlogLogger(namespace string) *slog.Logger {
	return slog.New(NewSlogHandler(New(namespace)))
}

// Discard returns a slog.Logger that discards all output
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
