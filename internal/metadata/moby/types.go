package moby

import (
	"regexp"
	"strconv"
	"strings"

	"romdata/internal/metadata"
)

type gameList struct {
	Games []game `json:"games"`
}

type game struct {
	ID          int64   `json:"game_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MobyScore   float64 `json:"moby_score"`
	SampleCover struct {
		Image string `json:"image"`
	} `json:"sample_cover"`
	SampleScreenshots []struct {
		Image string `json:"image"`
	} `json:"sample_screenshots"`
	Genres []struct {
		Name string `json:"genre_name"`
	} `json:"genres"`
	Platforms []struct {
		ID   int64  `json:"platform_id"`
		Name string `json:"platform_name"`
	} `json:"platforms"`
	AlternateTitles []struct {
		Title string `json:"title"`
	} `json:"alternate_titles"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML flattens the HTML fragments MobyGames embeds in descriptions.
func stripHTML(text string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(text, ""))
}

// normalizeImageURL makes a MobyGames image URL absolute.
func normalizeImageURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

func (g game) toRom() metadata.Rom {
	rom := metadata.Rom{
		ProviderID: metadata.ProviderID(g.ID),
		Provider:   providerName,
		Name:       g.Title,
		Slug:       slugify(g.Title),
		Summary:    stripHTML(g.Description),
		CoverURL:   normalizeImageURL(g.SampleCover.Image),
		Extra:      g.extra(),
	}
	rom.ScreenshotURLs = make([]string, 0, len(g.SampleScreenshots))
	for _, shot := range g.SampleScreenshots {
		if url := normalizeImageURL(shot.Image); url != "" {
			rom.ScreenshotURLs = append(rom.ScreenshotURLs, url)
		}
	}
	rom.Normalize()
	return rom
}

func (g game) extra() *metadata.Extra {
	extra := &metadata.Extra{}
	if g.MobyScore != 0 {
		extra.TotalRating = strconv.FormatFloat(g.MobyScore, 'f', 2, 64)
	}
	for _, genre := range g.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			extra.Genres = append(extra.Genres, name)
		}
	}
	for _, alt := range g.AlternateTitles {
		if title := strings.TrimSpace(alt.Title); title != "" {
			extra.AlternativeNames = append(extra.AlternativeNames, title)
		}
	}
	for _, platform := range g.Platforms {
		id := platform.ID
		extra.Platforms = append(extra.Platforms, metadata.PlatformRef{ID: &id, Name: platform.Name})
	}
	return extra
}
