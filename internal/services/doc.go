// Package services defines shared utilities consumed by the metadata
// pipeline and its integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, provider names,
//     and rom identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into configuration, connectivity, and transient categories.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
