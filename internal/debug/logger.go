// Package debug provides the process-wide log/slog logger behind --debug.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	// logger discards everything until Init enables it
	logger = slog.New(slog.DiscardHandler)
	mu     sync.RWMutex
)

// Init enables or disables debug logging to os.Stderr.
func Init(enable bool) {
	InitWriter(enable, os.Stderr)
}

// InitWriter enables or disables debug logging to w.
func InitWriter(enable bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if !enable {
		logger = slog.New(slog.DiscardHandler)
		return
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With("app", "prisma-rls")
}

// Logger returns the current logger. Components take it as a dependency.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
