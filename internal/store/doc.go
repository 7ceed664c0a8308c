// Package store persists resolved platform and rom metadata in a SQLite
// library database.
package store
