// Package logging assembles structured slog loggers and formatting helpers used
// across the verifier.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes field-name constants so parser, matcher, and package
// code tag log lines with batch identifiers, listing names, and line numbers
// the same way. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
