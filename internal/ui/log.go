package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns the structured logger used for diagnostics. It writes to
// stderr unless w is given, at debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "subtreesync",
		Level:           level,
		ReportTimestamp: verbose,
	})
}
