// Package metadata defines the provider-agnostic data model for game
// metadata: normalized rom and platform records, the provider interface, and
// the cross-provider merge. Raw provider payload shapes never leave the
// adapter packages; everything downstream works with these types.
package metadata
