package metadata

import "strings"

// mergeKey normalizes a title for cross-provider deduplication.
func mergeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Merge combines per-provider result lists into one deduplicated list keyed
// by normalized title. Lists are consumed in configuration order: when two
// providers return the same title, the earlier provider's non-empty fields
// win and the later provider only fills the gaps. Titles that do not collide
// are appended in encounter order. Every returned record is normalized.
func Merge(lists ...[]Rom) []Rom {
	merged := make([]Rom, 0)
	index := make(map[string]int)

	for _, list := range lists {
		for _, rom := range list {
			key := mergeKey(rom.Name)
			if key == "" {
				rom.Normalize()
				merged = append(merged, rom)
				continue
			}
			at, seen := index[key]
			if !seen {
				index[key] = len(merged)
				merged = append(merged, rom)
				continue
			}
			fill(&merged[at], rom)
		}
	}

	for i := range merged {
		merged[i].Normalize()
	}
	return merged
}

// fill copies candidate fields into dst only where dst is still empty.
func fill(dst *Rom, candidate Rom) {
	if dst.ProviderID == nil {
		dst.ProviderID = candidate.ProviderID
		if dst.Provider == "" {
			dst.Provider = candidate.Provider
		}
	}
	if dst.Name == "" {
		dst.Name = candidate.Name
	}
	if dst.Slug == "" {
		dst.Slug = candidate.Slug
	}
	if dst.Summary == "" {
		dst.Summary = candidate.Summary
	}
	if dst.CoverURL == "" || dst.CoverURL == DefaultCoverURL {
		if candidate.CoverURL != "" {
			dst.CoverURL = candidate.CoverURL
		}
	}
	if len(dst.ScreenshotURLs) == 0 {
		dst.ScreenshotURLs = candidate.ScreenshotURLs
	}
	if dst.Extra == nil {
		dst.Extra = candidate.Extra
	}
}
