// Package logging configures the process-wide charmbracelet/log default
// logger. The daemon is headless, so everything goes to stderr (or a file
// when requested); packages log through the package-level log.Debug/Info/
// Warn/Error functions directly.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Setup points the default logger at w (stderr if nil) and applies the
// configured level. Unrecognized levels fall back to info.
func Setup(w io.Writer, level string) {
	if w == nil {
		w = os.Stderr
	}
	log.SetOutput(w)
	log.SetReportTimestamp(true)
	log.SetLevel(parseLevel(level))
}

// SetupFile is Setup writing to path, appending across restarts. Returns
// the file so the caller can close it at shutdown; falls back to stderr on
// open failure.
func SetupFile(path, level string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		Setup(nil, level)
		return nil, err
	}
	Setup(f, level)
	return f, nil
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
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
