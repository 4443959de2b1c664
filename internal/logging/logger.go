// Package logging wraps charmbracelet/log behind package-level helpers.
// Before Init the logger writes to stderr at warn level, so library code
// can log unconditionally; Init switches to a dated file under the data
// dir with debug enabled.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.WarnLevel,
	})
	logFile *os.File
)

// Init redirects logging to a dated file under dir (e.g. ~/.marketruns).
func Init(dir string) error {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("mrx-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	logFile = f
	logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	})
	return nil
}

// Close flushes and closes the log file if Init opened one.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) { logger.Debug(msg, keyvals...) }

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) { logger.Info(msg, keyvals...) }

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) { logger.Warn(msg, keyvals...) }

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) { logger.Error(msg, keyvals...) }

// WithPrefix returns a sub-logger with a prefix.
func WithPrefix(prefix string) *log.Logger { return logger.WithPrefix(prefix) }
