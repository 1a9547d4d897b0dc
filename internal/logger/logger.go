// Package logger builds the diagnostic logger shared by the CLI.
package logger

import (
	"io"
	"log/slog"
)

// New returns a text slog.Logger writing to w. Verbose lowers the level to
// debug; otherwise only warnings and errors are emitted so the interactive
// output stays clean.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("app", "zhenxun")
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
