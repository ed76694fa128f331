// Package logging builds the slog loggers used across scribeq and provides
// attribute helpers plus standardized field names for structured output.
package logging
