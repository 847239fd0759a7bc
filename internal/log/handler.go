package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always masked.
// Per-site config headers can carry credentials, and those headers are
// logged when a fetch is dispatched.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
}

// MaskValue is the string used to replace masked values.
const MaskValue = "***REDACTED***"

// MaxAttrLen is the maximum length of a string attribute value before it
// is truncated. Long values are typically HTML snippets or joined URL
// lists that belong in the artifacts, not the log.
const MaxAttrLen = 256

// Handler wraps an slog.Handler to mask credential-bearing attributes and
// truncate oversized string values before delegating.
type Handler struct {
	handler slog.Handler
}

// NewHandler creates a Handler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewHandler(handler slog.Handler) *Handler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &Handler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	sanitized := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new Handler with the given attributes sanitized and
// added to the underlying handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &Handler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks credential keys and truncates oversized values.
// Group attributes are sanitized recursively.
func (h *Handler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		groupAttrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(groupAttrs))
		for i, ga := range groupAttrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if v := a.Value.String(); len(v) > MaxAttrLen {
			return slog.String(a.Key, v[:MaxAttrLen]+"...(truncated)")
		}
	}

	return a
}

// NewLogger creates an slog.Logger writing text records to w.
// verbose switches the level from Warn to Debug.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewHandler(textHandler))
}
