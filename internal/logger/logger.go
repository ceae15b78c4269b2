// Package logger wraps charmbracelet/log with the prefix/formatting
// defaults every imecore package logs through.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to stdout with prefix, text formatting, and
// the package-level log level (see cmd/imecore's -d flag).
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithConfig returns a logger with an explicit level/caller/timestamp/
// formatter combination, for callers that can't use New's defaults.
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}
