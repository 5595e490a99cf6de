// Package logging assembles the structured slog loggers used across clipreel.
//
// It owns the console and JSON handlers, a tee handler that mirrors records
// into the per-run log file, and the standard field keys (component, run ID,
// project, event type) so every stage emits lines with the same shape. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
