package logging

import (
	"io"
	"log/slog"
)

// NewTestConsoleHandler exposes the console handler for formatting tests.
func NewTestConsoleHandler(w io.Writer) slog.Handler {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	return newConsoleHandler(w, lvl, false)
}
