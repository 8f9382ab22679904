// Package logging provides the slog construction and attribute conventions
// used across daybook: a console handler for interactive runs, a JSON handler
// for scheduled ones, component loggers, and standardized warning fields so
// every degraded-mode warning carries cause, impact, and next step.
package logging
