// Package lookup manages the downloadable code-to-title indexes used for
// filename resolution: PS2 OPL disc serials, Switch title and product ids,
// and MAME arcade set names. Index files are fetched lazily, cached on disk,
// and replaced atomically on refresh.
package lookup
