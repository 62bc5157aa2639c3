// Package logger provides leveled logging for CLI commands and connectors.
//
// Warnings and errors are always printed. Debug output is suppressed unless
// verbose mode is enabled with the --verbose flag.
package logger

import (
	"log"
	"os"
	"sync/atomic"
)

var verbose atomic.Bool

var std = log.New(os.Stderr, "", log.LstdFlags)

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Verbose reports whether debug output is enabled.
func Verbose() bool {
	return verbose.Load()
}

// Debug logs a message only when verbose mode is enabled.
func Debug(format string, args ...any) {
	if verbose.Load() {
		std.Printf("DEBUG "+format, args...)
	}
}

// Info logs an informational message.
func Info(format string, args ...any) {
	std.Printf(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	std.Printf("WARN "+format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	std.Printf("ERROR "+format, args...)
}
