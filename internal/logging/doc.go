// Package logging assembles structured slog loggers and formatting helpers used
// across ytplayer.
//
// It owns the console and JSON handlers, mirrors CLI output into a JSON log
// file, and exposes context-aware helpers so pipeline code automatically tags
// log lines with the user, playlist, and item being processed. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
