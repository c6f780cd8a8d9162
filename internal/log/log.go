package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace is a custom trace level for slog
// Using LevelDebug - 4 which equals -8
const LevelTrace = slog.LevelDebug - 4

func ConfigLevelStringToSlogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// Options configures the process logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error.
	Level string
	// File receives the primary log stream. Empty or "-" selects Console.
	File string
	// Console is the user facing stream (normally STDERR).
	Console io.Writer
}

// New builds the process logger. When logs go to a file, error records are
// additionally mirrored to Console in a friendly format. The returned closer
// releases the log file and is never nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := ConfigLevelStringToSlogLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	path := strings.TrimSpace(opts.File)
	if path == "" || path == "-" {
		return slog.New(NewDualHandler(slog.NewTextHandler(console, handlerOpts), nil)), func() error { return nil }, nil
	}

	path = os.ExpandEnv(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}

	handler := NewDualHandler(slog.NewTextHandler(f, handlerOpts), NewFriendlyErrorHandler(console))
	return slog.New(handler), f.Close, nil
}

// FromContext returns the logger stored on ctx or a discarding logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
