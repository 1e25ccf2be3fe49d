package logging

import (
	"os"
	"sync/atomic"
)

var global atomic.Pointer[Logger]

// Global returns the process logger. Before Configure or SetGlobal runs
// it lazily installs an info-level JSON logger writing to stderr.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, New(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}))
	return global.Load()
}

// SetGlobal replaces the process logger.
func SetGlobal(l *Logger) {
	global.Store(l)
}

// Configure builds the process logger from config strings, installs it,
// and returns it. Caller locations are recorded only at debug level.
// Called once during command startup.
func Configure(level, format string) *Logger {
	lvl := ParseLevel(level)
	l := New(Config{
		Level:     lvl,
		Format:    ParseFormat(format),
		Output:    os.Stderr,
		AddCaller: lvl == LevelDebug,
	})
	SetGlobal(l)
	return l
}
