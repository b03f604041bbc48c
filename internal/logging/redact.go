package logging

import (
	"context"
	"log/slog"
	"regexp"
)

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(X-Plex-Token=)[^&\s"']+`),
	regexp.MustCompile(`(?i)(authenticationToken=")[^"]*`),
	regexp.MustCompile(`(?i)(token":\s*")[^"]*`),
	regexp.MustCompile(`(?i)(Authorization:\s*(?:Basic|Bearer)\s+)\S+`),
}

// Redact masks Plex tokens and credentials embedded in s.
func Redact(s string) string {
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllString(s, "${1}[REDACTED]")
	}
	return s
}

// redactHandler scrubs the message and every string-valued attribute before
// passing the record on. Error values are flattened to their redacted text.
type redactHandler struct {
	next slog.Handler
}

func newRedactHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &redactHandler{next: next}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, Redact(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(redactAttr(attr))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		cleaned[i] = redactAttr(attr)
	}
	return &redactHandler{next: h.next.WithAttrs(cleaned)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, Redact(value.String()))
	case slog.KindGroup:
		group := value.Group()
		cleaned := make([]any, 0, len(group))
		for _, inner := range group {
			cleaned = append(cleaned, redactAttr(inner))
		}
		return slog.Group(attr.Key, cleaned...)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok && err != nil {
			return slog.String(attr.Key, Redact(err.Error()))
		}
	}
	attr.Value = value
	return attr
}
