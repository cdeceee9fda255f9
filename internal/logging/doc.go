// Package logging builds the slog loggers used across Verdandi.
//
// It provides a console handler that renders compact human-readable lines, a
// JSON handler for machine consumption, typed attribute helpers, and context
// integration that stamps experiment, step, and worker fields onto every log
// record produced inside a pipeline run.
package logging
