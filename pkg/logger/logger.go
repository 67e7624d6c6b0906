// Package logger builds the slog loggers shared by the CMS binaries.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stdout. Every record carries the
// service name and deployment environment so api and migrate output can be
// told apart in aggregated logs.
func New(service, environment string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service, "env", environment)
}
