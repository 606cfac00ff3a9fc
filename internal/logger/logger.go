// Package logger provides verbose logging for the docspace CLI.
// When verbose mode is enabled via the --verbose flag, debug messages are
// printed to stderr so users can follow schema negotiation, batch writes,
// and query fallbacks. Nothing is printed otherwise.
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

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write("DEBUG", "", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write("INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write("WARN", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Scoped prefixes every message with a component name.
type Scoped struct {
	component string
}

// For returns a logger that tags messages with component.
func For(component string) Scoped {
	return Scoped{component: component}
}

// Debug prints a component message if verbose mode is enabled.
func (s Scoped) Debug(format string, args ...any) {
	write("DEBUG", s.component, format, args...)
}

// Info prints a component message if verbose mode is enabled.
func (s Scoped) Info(format string, args ...any) {
	write("INFO", s.component, format, args...)
}

// Warn prints a component warning if verbose mode is enabled.
func (s Scoped) Warn(format string, args ...any) {
	write("WARN", s.component, format, args...)
}

// Timed logs how long an operation took. Use as defer log.Timed("op")().
func (s Scoped) Timed(op string) func() {
	start := now()
	return func() {
		write("DEBUG", s.component, "%s took %s", op, now().Sub(start).Round(time.Millisecond))
	}
}

func write(level, component, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	if component != "" {
		fmt.Fprintf(output, "[%s] %s: "+format+"\n", append([]any{level, component}, args...)...)
		return
	}
	fmt.Fprintf(output, "[%s] "+format+"\n", append([]any{level}, args...)...)
}
