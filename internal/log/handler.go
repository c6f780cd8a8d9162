package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// mirrorErrors is cleared while a full screen view owns the terminal.
var mirrorErrors atomic.Bool

func init() {
	mirrorErrors.Store(true)
}

// EnableErrorMirroring restores copying error records to the console.
func EnableErrorMirroring() {
	mirrorErrors.Store(true)
}

// DisableErrorMirroring stops copying error records to the console. The view
// command uses it so that stderr output does not corrupt the screen.
func DisableErrorMirroring() {
	mirrorErrors.Store(false)
}

// NewDualHandler returns the process log handler. Every record sent to
// primary carries the HTTPLogContext of its context (command, transport
// mode, operation, request id). Error records are also copied, without
// those attributes, to console unless mirroring is disabled. console may be
// nil.
func NewDualHandler(primary slog.Handler, console slog.Handler) slog.Handler {
	return &dualHandler{primary: primary, console: console}
}

type dualHandler struct {
	primary slog.Handler
	console slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.mirrors(ctx, level)
}

func (h *dualHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.primary.Enabled(ctx, record.Level) {
		enriched := record.Clone()
		enriched.AddAttrs(HTTPLogContextAttrs(ctx)...)
		if err := h.primary.Handle(ctx, enriched); err != nil {
			return err
		}
	}
	if h.mirrors(ctx, record.Level) {
		return h.console.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *dualHandler) derive(apply func(slog.Handler) slog.Handler) slog.Handler {
	next := &dualHandler{primary: apply(h.primary)}
	if h.console != nil {
		next.console = apply(h.console)
	}
	return next
}

func (h *dualHandler) mirrors(ctx context.Context, level slog.Level) bool {
	return h.console != nil &&
		level >= slog.LevelError &&
		mirrorErrors.Load() &&
		h.console.Enabled(ctx, level)
}
