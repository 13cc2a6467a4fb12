// Package logging builds the structured logger shared by gitgem commands.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

const prefix = "gitgem"

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error" or "fatal").
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           lvl,
		ReportTimestamp: lvl == log.DebugLevel,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
