package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// leadingKeys are printed right after the summary line, in this order.
var leadingKeys = []string{"error", "details", "suggestion"}

// NewFriendlyErrorHandler returns a handler that prints error records for a
// person reading STDERR:
//
//	Error: Failed to list clients
//	  error: relay list: status 422
//	  details: INVALID_FILTER_BY_FORMULA
//	  operation: list
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{w: w}
}

type friendlyHandler struct {
	w      io.Writer
	prefix string
	attrs  []field
}

type field struct {
	key   string
	value string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)
		return true
	})

	summary := strings.TrimSpace(record.Message)
	if summary == "" {
		summary = valueOf(fields, "error")
		fields = without(fields, "error")
	}
	if summary == "" {
		summary = "an unknown error occurred"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", summary)
	for _, key := range leadingKeys {
		if v := valueOf(fields, key); v != "" {
			writeField(&sb, key, v)
		}
	}

	rest := slices.DeleteFunc(fields, func(f field) bool {
		return f.value == "" || slices.Contains(leadingKeys, f.key)
	})
	slices.SortStableFunc(rest, func(a, b field) int { return strings.Compare(a.key, b.key) })
	for _, f := range rest {
		writeField(&sb, f.key, f.value)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		next.attrs = flatten(next.attrs, h.prefix, a)
	}
	return &next
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// flatten appends a to fields, expanding groups into dotted keys.
func flatten(fields []field, prefix string, a slog.Attr) []field {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, inner := range v.Group() {
			fields = flatten(fields, prefix, inner)
		}
		return fields
	}
	if a.Key == "" {
		return fields
	}
	return append(fields, field{key: prefix + a.Key, value: stringify(v)})
}

func stringify(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func valueOf(fields []field, key string) string {
	for _, f := range fields {
		if f.key == key && f.value != "" {
			return f.value
		}
	}
	return ""
}

func without(fields []field, key string) []field {
	return slices.DeleteFunc(fields, func(f field) bool { return f.key == key })
}

// writeField prints key: value, indenting continuation lines of multi-line
// values and dropping blank ones.
func writeField(sb *strings.Builder, key, value string) {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	fmt.Fprintf(sb, "  %s: %s\n", key, strings.TrimSpace(lines[0]))
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(sb, "    %s\n", line)
		}
	}
}
