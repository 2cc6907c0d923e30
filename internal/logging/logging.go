// Package logging builds the phuslu/log loggers used by the CLI.
package logging

import (
	"io"
	"strings"

	"github.com/phuslu/log"
)

// TimeFormat is used for console output.
const TimeFormat = "15:04:05"

// ParseLevel converts a level name to a log.Level. Unknown names map to
// info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
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

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level string, color bool) *log.Logger {
	return &log.Logger{
		Level:      ParseLevel(level),
		TimeFormat: TimeFormat,
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    color,
			EndWithMessage: true,
		},
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
