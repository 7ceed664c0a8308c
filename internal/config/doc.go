// Package config loads, normalizes, and validates the TOML configuration for
// romdata. Credentials may also arrive via environment variables
// (IGDB_CLIENT_ID, IGDB_CLIENT_SECRET, MOBYGAMES_API_KEY).
package config
