// Package logger provides verbose logging for the assistant.
// When verbose mode is enabled via the --verbose flag, pipeline stages
// are traced to stderr. Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose || always {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(false, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(false, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
// Reserved for conditions an operator must see, such as a table built
// with a different embedding model.
func Error(format string, args ...any) {
	logf(true, "[ERROR] ", format, args...)
}

// Timer starts timing a stage. Calling the returned function logs the
// elapsed time at debug level and returns it.
func Timer(stage string) func() time.Duration {
	mu.RLock()
	clock := now
	mu.RUnlock()

	start := clock()
	return func() time.Duration {
		elapsed := clock().Sub(start)
		Debug("%s took %s", stage, elapsed.Round(time.Millisecond))
		return elapsed
	}
}
