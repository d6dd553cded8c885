// Package logging builds the slog loggers used across fieldcap and defines the
// standardized structured field names.
package logging
