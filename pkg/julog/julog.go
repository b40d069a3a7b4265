// Package julog provides the VM's ambient structured logger.
//
// This is not the compiler's "logging of debug lines" (spec.md lists that
// as an out-of-scope external concern) — it's diagnostics the runtime itself
// emits; its one caller in the engine is State.LoadCoreModules, which logs a
// warning when core.json cannot be read. Shaped
// after oriys-nova's internal/logging package, the one example in the
// retrieval pack of how this corpus wires up log/slog: a package-level
// atomic logger, reconfigurable format/level, safe for concurrent use
// without a mutex.
package julog

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
}

// Configure reconfigures the package logger. format is "text" or "json";
// level is "debug", "info", "warn", or "error".
func Configure(format, level string) {
	opts := &slog.HandlerOptions{Level: levelFromString(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	current.Store(slog.New(handler))
}

func levelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// L returns the current package logger.
func L() *slog.Logger {
	return current.Load()
}
