package slogutil

import (
	"context"
	"io"
	"log/slog"

	"chunkgate/internal/config"
	"chunkgate/internal/paths"
)

// Setup builds the process logger: a console handler on console at
// consoleLevel, plus a rotating file handler when cfg.File is set ("auto"
// means <root>/.chunkgate/logs/chunkgate.log). The returned closer must be
// closed on exit; it is a no-op when no file is open.
func Setup(root string, cfg config.LoggingConfig, console io.Writer, consoleLevel slog.Level) (*slog.Logger, io.Closer, error) {
	handlers := []slog.Handler{
		NewLineHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
	}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		path := cfg.File
		if path == "auto" {
			path = paths.LogPath(root)
		}
		rf, err := OpenRotatingFile(path, ParseSize(cfg.MaxSize), cfg.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, NewLineHandler(rf, &slog.HandlerOptions{Level: LevelFromString(cfg.Level)}))
		closer = rf
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), closer, nil
	}
	return slog.New(NewTeeHandler(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// TeeHandler writes logs to multiple handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level.
func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to every enabled handler and returns the first error.
func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs returns a new TeeHandler with attributes added to all handlers.
func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

// WithGroup returns a new TeeHandler with the group added to all handlers.
func (t *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}
