package log

import (
	"context"
	"log/slog"
	"strings"
)

type httpLogContextKey struct{}

// HTTPLogContext contains contextual metadata emitted with HTTP trace logs.
type HTTPLogContext struct {
	CommandPath string
	CommandVerb string

	TransportMode string
	Operation     string
	RequestID     string
}

var HTTPLogContextKey = httpLogContextKey{}

// WithHTTPLogContext merges non-empty fields from update into ctx.
func WithHTTPLogContext(ctx context.Context, update HTTPLogContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := HTTPLogContextFromContext(ctx)
	mergeHTTPLogContext(&current, update)

	return context.WithValue(ctx, HTTPLogContextKey, current)
}

// HTTPLogContextFromContext extracts HTTP logging metadata from ctx.
func HTTPLogContextFromContext(ctx context.Context) HTTPLogContext {
	if ctx == nil {
		return HTTPLogContext{}
	}

	switch value := ctx.Value(HTTPLogContextKey).(type) {
	case HTTPLogContext:
		return value
	case *HTTPLogContext:
		if value != nil {
			return *value
		}
	}

	return HTTPLogContext{}
}

// HTTPLogContextAttrs converts context metadata to slog attributes.
func HTTPLogContextAttrs(ctx context.Context) []slog.Attr {
	meta := HTTPLogContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 5)

	appendStringAttr(&attrs, "command_path", meta.CommandPath)
	appendStringAttr(&attrs, "command_verb", meta.CommandVerb)
	appendStringAttr(&attrs, "transport_mode", meta.TransportMode)
	appendStringAttr(&attrs, "operation", meta.Operation)
	appendStringAttr(&attrs, "request_id", meta.RequestID)

	return attrs
}

func mergeHTTPLogContext(target *HTTPLogContext, update HTTPLogContext) {
	mergeStringField(&target.CommandPath, update.CommandPath)
	mergeStringField(&target.CommandVerb, update.CommandVerb)
	mergeStringField(&target.TransportMode, update.TransportMode)
	mergeStringField(&target.Operation, update.Operation)
	mergeStringField(&target.RequestID, update.RequestID)
}

func mergeStringField(target *string, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*target = trimmed
}

func appendStringAttr(attrs *[]slog.Attr, key, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*attrs = append(*attrs, slog.String(key, trimmed))
}
