// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
)

var logger = clog.NewWithOptions(io.Discard, clog.Options{})

// Init configures the package logger with the given level and optional
// log file. With an empty file the logger writes to stderr, which is
// only useful outside the TUI; the app passes a file path so log output
// does not corrupt the rendered screen.
func Init(level, file string) error {
	var w io.Writer = os.Stderr
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		w = f
	}

	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		Level:           parseLevel(level),
	})
	if file != "" {
		l.SetFormatter(clog.JSONFormatter)
	}
	logger = l
	return nil
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

// L returns the configured logger. Before Init it discards all output.
func L() *clog.Logger {
	return logger
}

// With returns a logger with additional key-value pairs attached.
func With(args ...any) *clog.Logger {
	return logger.With(args...)
}
