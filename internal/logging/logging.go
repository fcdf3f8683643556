// Package logging builds relay's stderr logger. Stdout carries the
// MCP stdio transport, so nothing else may write to it.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a leveled key-value logger on stderr. Unrecognized level
// strings fall back to info.
func New(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           parseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "relay",
	})
	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
