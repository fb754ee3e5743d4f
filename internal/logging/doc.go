// Package logging assembles structured slog loggers and formatting helpers used
// across tsutils.
//
// It owns the console and JSON handlers, tees every record into a JSON log
// file when a log directory is configured, and exposes context-aware helpers
// so operations automatically tag log lines with their operation name and
// request ID. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
