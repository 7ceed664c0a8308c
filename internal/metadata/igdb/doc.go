// Package igdb adapts the IGDB v4 API: Twitch OAuth token management, the
// APIcalypse query transport, and conversion of IGDB payloads into the
// provider-agnostic metadata model.
package igdb
