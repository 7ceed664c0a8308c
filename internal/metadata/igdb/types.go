package igdb

import (
	"strconv"
	"strings"

	"romdata/internal/metadata"
)

// Game category values used for the search fallback chain.
const (
	mainGameCategory     = 0
	expandedGameCategory = 10
)

// Platforms whose filenames follow a code-based naming scheme.
const (
	ps2PlatformID    = 8
	switchPlatformID = 130
)

var arcadePlatformIDs = map[int64]struct{}{52: {}, 79: {}, 80: {}}

type namedEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type imageEntity struct {
	URL string `json:"url"`
}

type companyEntry struct {
	Company namedEntity `json:"company"`
}

type relatedEntry struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Slug  string      `json:"slug"`
	Cover imageEntity `json:"cover"`
}

type game struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Summary          string         `json:"summary"`
	TotalRating      float64        `json:"total_rating"`
	AggregatedRating float64        `json:"aggregated_rating"`
	FirstReleaseDate int64          `json:"first_release_date"`
	Cover            imageEntity    `json:"cover"`
	Screenshots      []imageEntity  `json:"screenshots"`
	Genres           []namedEntity  `json:"genres"`
	Franchise        namedEntity    `json:"franchise"`
	Franchises       []namedEntity  `json:"franchises"`
	Collections      []namedEntity  `json:"collections"`
	AlternativeNames []namedEntity  `json:"alternative_names"`
	GameModes        []namedEntity  `json:"game_modes"`
	Platforms        []namedEntity  `json:"platforms"`
	Companies        []companyEntry `json:"involved_companies"`
	Expansions       []relatedEntry `json:"expansions"`
	DLCs             []relatedEntry `json:"dlcs"`
	Remasters        []relatedEntry `json:"remasters"`
	Remakes          []relatedEntry `json:"remakes"`
	ExpandedGames    []relatedEntry `json:"expanded_games"`
	Ports            []relatedEntry `json:"ports"`
	SimilarGames     []relatedEntry `json:"similar_games"`
}

type platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// searchResult is one entry from the search endpoint, which matches against
// alternative names the games endpoint misses.
type searchResult struct {
	Game game `json:"game"`
}

// gameFields is the APIcalypse field list requested for every game query.
var gameFields = strings.Join([]string{
	"id",
	"name",
	"slug",
	"summary",
	"total_rating",
	"aggregated_rating",
	"first_release_date",
	"cover.url",
	"screenshots.url",
	"genres.name",
	"franchise.name",
	"franchises.name",
	"collections.name",
	"alternative_names.name",
	"game_modes.name",
	"platforms.id", "platforms.name",
	"involved_companies.company.name",
	"expansions.id", "expansions.name", "expansions.slug", "expansions.cover.url",
	"dlcs.id", "dlcs.name", "dlcs.slug", "dlcs.cover.url",
	"remasters.id", "remasters.name", "remasters.slug", "remasters.cover.url",
	"remakes.id", "remakes.name", "remakes.slug", "remakes.cover.url",
	"expanded_games.id", "expanded_games.name", "expanded_games.slug", "expanded_games.cover.url",
	"ports.id", "ports.name", "ports.slug", "ports.cover.url",
	"similar_games.id", "similar_games.name", "similar_games.slug", "similar_games.cover.url",
}, ",")

// normalizeImageURL makes an IGDB image URL absolute and swaps the thumbnail
// size for the requested one.
func normalizeImageURL(url, size string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}
	return strings.Replace(url, "t_thumb", size, 1)
}

func (g game) toRom() metadata.Rom {
	rom := metadata.Rom{
		ProviderID: metadata.ProviderID(g.ID),
		Provider:   providerName,
		Name:       g.Name,
		Slug:       g.Slug,
		Summary:    g.Summary,
		CoverURL:   normalizeImageURL(g.Cover.URL, "t_cover_big"),
		Extra:      g.extra(),
	}
	rom.ScreenshotURLs = make([]string, 0, len(g.Screenshots))
	for _, shot := range g.Screenshots {
		if url := normalizeImageURL(shot.URL, "t_original"); url != "" {
			rom.ScreenshotURLs = append(rom.ScreenshotURLs, url)
		}
	}
	rom.Normalize()
	return rom
}

func (g game) extra() *metadata.Extra {
	extra := &metadata.Extra{
		TotalRating:      formatRating(g.TotalRating),
		AggregatedRating: formatRating(g.AggregatedRating),
		FirstReleaseDate: g.FirstReleaseDate,
		Genres:           names(g.Genres),
		Franchises:       franchiseNames(g.Franchise, g.Franchises),
		Collections:      names(g.Collections),
		AlternativeNames: names(g.AlternativeNames),
		GameModes:        names(g.GameModes),
		Expansions:       related(g.Expansions, metadata.RelationExpansion),
		DLCs:             related(g.DLCs, metadata.RelationDLC),
		Remasters:        related(g.Remasters, metadata.RelationRemaster),
		Remakes:          related(g.Remakes, metadata.RelationRemake),
		ExpandedGames:    related(g.ExpandedGames, metadata.RelationExpanded),
		Ports:            related(g.Ports, metadata.RelationPort),
		SimilarGames:     related(g.SimilarGames, metadata.RelationSimilar),
	}
	for _, entry := range g.Companies {
		if name := strings.TrimSpace(entry.Company.Name); name != "" {
			extra.Companies = append(extra.Companies, name)
		}
	}
	for _, entry := range g.Platforms {
		id := entry.ID
		extra.Platforms = append(extra.Platforms, metadata.PlatformRef{ID: &id, Name: entry.Name})
	}
	return extra
}

// formatRating renders a 0-100 rating as a short decimal string; a zero
// rating means the provider had none.
func formatRating(rating float64) string {
	if rating == 0 {
		return ""
	}
	return strconv.FormatFloat(rating, 'f', 2, 64)
}

func names(entities []namedEntity) []string {
	out := make([]string, 0, len(entities))
	for _, entity := range entities {
		if name := strings.TrimSpace(entity.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func franchiseNames(main namedEntity, rest []namedEntity) []string {
	out := make([]string, 0, len(rest)+1)
	if name := strings.TrimSpace(main.Name); name != "" {
		out = append(out, name)
	}
	for _, entity := range rest {
		name := strings.TrimSpace(entity.Name)
		if name == "" || (len(out) > 0 && name == out[0]) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func related(entries []relatedEntry, kind metadata.RelationKind) []metadata.RelatedGame {
	out := make([]metadata.RelatedGame, 0, len(entries))
	for _, entry := range entries {
		out = append(out, metadata.RelatedGame{
			ID:       entry.ID,
			Name:     entry.Name,
			Slug:     entry.Slug,
			Kind:     kind,
			CoverURL: normalizeImageURL(entry.Cover.URL, "t_cover_big"),
		})
	}
	return out
}
