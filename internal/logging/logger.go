// Package logging builds the console logger fluxdl components log through.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing human-readable console output to w.
// fluxdl is a library, not a CLI entry point, so unlike the tool this
// package was adapted from there is no package-level init() installing a
// process-wide logger: every Service/Downloader takes its logger as a
// constructor argument and callers own the writer (stdout, a file, a
// multi-writer feeding a progress UI, etc).
func New(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(console).With().Timestamp().Logger()
}

// NewDefault builds a logger writing to stderr, the same stream the
// internal/progress bars draw on.
func NewDefault() zerolog.Logger {
	return New(os.Stderr)
}
