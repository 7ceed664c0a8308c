// Package logging wraps log/slog with the console and JSON handlers used
// across romdata, plus attribute helpers and the standardized field keys for
// providers, platforms, and correlation identifiers.
package logging
