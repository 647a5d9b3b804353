// Package logger provides levelled logging for recall.
// Warnings and errors are always printed. Debug and info messages are
// printed only in verbose mode, enabled via the --verbose flag, to help
// users follow the indexing and retrieval pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is a logging threshold.
type Level int

// Levels in increasing verbosity.
const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var (
	mu     sync.RWMutex
	level         = LevelWarn
	output io.Writer = os.Stderr
)

// SetLevel sets the logging threshold.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetVerbose switches between debug output and the default warn threshold.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// IsVerbose returns true if debug messages are printed.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return level >= LevelDebug
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if level >= l {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message in verbose mode.
func Debug(format string, args ...any) {
	logf(LevelDebug, "[DEBUG] ", format, args...)
}

// Info prints an informational message in verbose mode.
func Info(format string, args ...any) {
	logf(LevelInfo, "[INFO] ", format, args...)
}

// Warn prints a warning. Used for degraded but successful operations.
func Warn(format string, args ...any) {
	logf(LevelWarn, "[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(LevelError, "[ERROR] ", format, args...)
}

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level >= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
