package romname

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold approximates a search term with its closest ASCII form by stripping
// combining marks (e.g. "Pokémon" becomes "Pokemon"). Providers whose
// full-text search handles diacritics poorly get the folded term.
func Fold(term string) string {
	folded, _, err := transform.String(asciiFolder, term)
	if err != nil {
		return term
	}
	return folded
}

var symbolReplacer = strings.NewReplacer(
	"™", "", // trademark
	"®", "", // registered
	"©", "", // copyright
	"℠", "", // service mark
)

// StripSymbols removes trademark, registered, copyright, and service-mark
// symbols and trims surrounding whitespace.
func StripSymbols(term string) string {
	return strings.TrimSpace(symbolReplacer.Replace(term))
}
