package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Handlers and services receive this by
// injection rather than reaching for a package-level logger.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
