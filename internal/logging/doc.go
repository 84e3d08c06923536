// Package logging builds the slog loggers used across the coffer CLI and
// daemon.
//
// It provides a console handler for interactive use, a JSON handler for the
// daemon log file, attribute helpers so call sites stay terse, and a no-op
// logger for tests. Component loggers carry a standard "component" attribute
// that the console handler folds into the message prefix.
package logging
