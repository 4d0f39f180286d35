// Package logging provides the structured logging interface the salve
// engine uses for ambient diagnostic tracing.
package logging

import (
	"context"
	"log/slog"
)

// Logger is the interface salve uses for structured logging.
//
// The interface is designed to be minimal yet compatible with popular
// logging libraries including log/slog, zap, and zerolog. It uses variadic
// key-value pairs for structured attributes, following the same convention
// as log/slog.
//
// Implementations should treat attrs as alternating key-value pairs:
//
//	logger.Debug("cache insert", "node", id, "eventIndex", n)
//
// # Usage with log/slog
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	logger := logging.NewSlogAdapter(slog.New(handler))
//	v, err := engine.New(g, root, engine.WithLogger(logger))
type Logger interface {
	// Debug logs at debug level. The engine uses it for tracing: cycle
	// start/stop/done, cache insert/evict/purge, reset spans, and each
	// validation error.
	Debug(msg string, attrs ...any)

	// Info logs at info level. The engine itself does not log at this
	// level.
	Info(msg string, attrs ...any)

	// Warn logs at warn level. The engine itself does not log at this
	// level.
	Warn(msg string, attrs ...any)

	// Error logs at error level. Used for fatal engine errors before the
	// scheduler stops.
	Error(msg string, attrs ...any)

	// With returns a new Logger with the given attributes prepended to
	// every subsequent log call.
	With(attrs ...any) Logger
}

// noopLogger discards everything. It is the default when no Logger is
// configured, so the engine is silent unless asked.
type noopLogger struct{}

// Noop returns a Logger that discards all output.
func Noop() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...any)    {}
func (noopLogger) Info(string, ...any)     {}
func (noopLogger) Warn(string, ...any)     {}
func (noopLogger) Error(string, ...any)    {}
func (noopLogger) With(...any) Logger      { return noopLogger{} }

// SlogAdapter wraps a *slog.Logger to implement Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Debug(msg string, attrs ...any) {
	a.logger.Log(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (a *SlogAdapter) Info(msg string, attrs ...any) {
	a.logger.Log(context.Background(), slog.LevelInfo, msg, attrs...)
}

func (a *SlogAdapter) Warn(msg string, attrs ...any) {
	a.logger.Log(context.Background(), slog.LevelWarn, msg, attrs...)
}

func (a *SlogAdapter) Error(msg string, attrs ...any) {
	a.logger.Log(context.Background(), slog.LevelError, msg, attrs...)
}

func (a *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{logger: a.logger.With(attrs...)}
}
