package romname

import (
	"path/filepath"
	"regexp"
	"strings"
)

// tagPattern matches one bracketed or parenthesized release tag group, e.g.
// "(USA)", "(Rev 1)", "[T-En by Group]".
var tagPattern = regexp.MustCompile(`[\(\[][^)\]]*[\)\]]`)

// multiSpacePattern collapses runs of whitespace left behind by tag removal.
var multiSpacePattern = regexp.MustCompile(`\s{2,}`)

// StripExtension removes the final file extension from a filename.
func StripExtension(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// StripTags removes the extension and every bracketed/parenthesized tag group
// from a rom filename, preserving the remaining title text and word order.
func StripTags(fileName string) string {
	base := StripExtension(fileName)
	stripped := tagPattern.ReplaceAllString(base, "")
	stripped = multiSpacePattern.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(stripped)
}

var revisionPattern = regexp.MustCompile(`(?i)^rev\s*([0-9.]+[a-z]?)$`)

var regionNames = map[string]string{
	"usa":       "USA",
	"us":        "USA",
	"europe":    "Europe",
	"eu":        "Europe",
	"japan":     "Japan",
	"jp":        "Japan",
	"world":     "World",
	"australia": "Australia",
	"asia":      "Asia",
	"brazil":    "Brazil",
	"china":     "China",
	"korea":     "Korea",
	"france":    "France",
	"germany":   "Germany",
	"italy":     "Italy",
	"spain":     "Spain",
	"sweden":    "Sweden",
	"taiwan":    "Taiwan",
	"unknown":   "Unknown",
}

var languageCodePattern = regexp.MustCompile(`^[A-Z][a-z](?:[+,][A-Z][a-z])*$`)

// Tags is the classified breakdown of a filename's release tag groups.
type Tags struct {
	Regions   []string
	Revision  string
	Languages []string
	Other     []string
}

// ParseTags classifies every tag group in a rom filename into regions,
// revision, languages, and a catch-all bucket. Unrecognized groups are kept
// verbatim (minus brackets) so no information is lost.
func ParseTags(fileName string) Tags {
	var tags Tags
	base := StripExtension(fileName)
	for _, group := range tagPattern.FindAllString(base, -1) {
		inner := strings.TrimSpace(group[1 : len(group)-1])
		if inner == "" {
			continue
		}
		if rev := revisionPattern.FindStringSubmatch(inner); rev != nil {
			tags.Revision = rev[1]
			continue
		}
		if languageCodePattern.MatchString(inner) {
			for _, code := range strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == '+' }) {
				tags.Languages = append(tags.Languages, code)
			}
			continue
		}
		if regions := splitRegions(inner); regions != nil {
			tags.Regions = append(tags.Regions, regions...)
			continue
		}
		tags.Other = append(tags.Other, inner)
	}
	return tags
}

// splitRegions returns canonical region names when every comma-separated part
// of the tag is a known region, else nil.
func splitRegions(inner string) []string {
	parts := strings.Split(inner, ",")
	regions := make([]string, 0, len(parts))
	for _, part := range parts {
		canonical, ok := regionNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil
		}
		regions = append(regions, canonical)
	}
	return regions
}
