// Package logging provides structured logging for Gray Switch.
//
// It wraps the standard library's log/slog with configuration-driven
// level, format, and output selection, plus default service fields.
package logging
