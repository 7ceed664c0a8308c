// Package moby adapts the MobyGames v1 API to the provider-agnostic metadata
// model.
package moby
