// Package logging configures leveled console logging on stderr. Stdout is
// left to command output.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const prefix = "todoscan"

var (
	mu  sync.Mutex
	std = New(os.Stderr, "info")
)

// New creates a logger writing to w at the given level.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       log.TextFormatter,
		ReportTimestamp: false,
		Prefix:          prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return New(io.Discard, "fatal")
}

// Default returns the process-wide logger.
func Default() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return std
}

// SetLevel changes the level of the process-wide logger.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	std.SetLevel(ParseLevel(level))
}

// ParseLevel parses a string log level. Unknown levels map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
