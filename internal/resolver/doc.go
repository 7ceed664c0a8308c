// Package resolver orchestrates metadata lookups across the configured
// providers: platform resolution, filename identification, and free-form
// search, with cross-provider merging and optional persistence.
package resolver
