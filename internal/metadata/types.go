package metadata

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCoverURL is the placeholder artwork used when no provider supplied
// a cover image.
const DefaultCoverURL = "https://images.igdb.com/igdb/image/upload/t_cover_big/nocover_qhhlj6.jpg"

// RelationKind tags entries in related-game lists.
type RelationKind string

const (
	RelationExpansion RelationKind = "expansion"
	RelationDLC       RelationKind = "dlc"
	RelationRemaster  RelationKind = "remaster"
	RelationRemake    RelationKind = "remake"
	RelationExpanded  RelationKind = "expanded"
	RelationPort      RelationKind = "port"
	RelationSimilar   RelationKind = "similar"
)

// RelatedGame is a compact reference to another game carried inside the
// extended metadata block.
type RelatedGame struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Slug     string       `json:"slug"`
	Kind     RelationKind `json:"type"`
	CoverURL string       `json:"cover_url"`
}

// PlatformRef names a platform inside the extended metadata block.
type PlatformRef struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

// Extra carries the optional extended metadata block: ratings, taxonomy, and
// related-game lists tagged by relation kind.
type Extra struct {
	TotalRating      string        `json:"total_rating"`
	AggregatedRating string        `json:"aggregated_rating"`
	FirstReleaseDate int64         `json:"first_release_date"`
	Genres           []string      `json:"genres"`
	Franchises       []string      `json:"franchises"`
	AlternativeNames []string      `json:"alternative_names"`
	Collections      []string      `json:"collections"`
	Companies        []string      `json:"companies"`
	GameModes        []string      `json:"game_modes"`
	Platforms        []PlatformRef `json:"platforms"`
	Expansions       []RelatedGame `json:"expansions"`
	DLCs             []RelatedGame `json:"dlcs"`
	Remasters        []RelatedGame `json:"remasters"`
	Remakes          []RelatedGame `json:"remakes"`
	ExpandedGames    []RelatedGame `json:"expanded_games"`
	Ports            []RelatedGame `json:"ports"`
	SimilarGames     []RelatedGame `json:"similar_games"`
}

// Rom is the canonical provider-agnostic record returned to callers. Every
// field has a defined default so the structure stays fully populated even on
// a miss; Normalize enforces this.
type Rom struct {
	ProviderID     *int64   `json:"provider_id"`
	Provider       string   `json:"provider"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Summary        string   `json:"summary"`
	CoverURL       string   `json:"cover_url"`
	ScreenshotURLs []string `json:"screenshot_urls"`
	Extra          *Extra   `json:"metadata,omitempty"`
}

// Normalize fills empty collection and cover fields with their defaults so
// consumers always receive a structurally uniform record.
func (r *Rom) Normalize() {
	if r.ScreenshotURLs == nil {
		r.ScreenshotURLs = []string{}
	}
	if strings.TrimSpace(r.CoverURL) == "" {
		r.CoverURL = DefaultCoverURL
	}
}

// Matched reports whether the record resolved to a real provider entry.
func (r Rom) Matched() bool {
	return r.ProviderID != nil
}

// Platform is the normalized platform record.
type Platform struct {
	ProviderID *int64 `json:"provider_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

var titleCaser = cases.Title(language.Und)

// FallbackPlatform builds a Platform for a slug no provider recognized: the
// display name is the title-cased slug with separators replaced by spaces.
func FallbackPlatform(slug string) Platform {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return Platform{
		Name: titleCaser.String(strings.TrimSpace(name)),
		Slug: slug,
	}
}

// SearchBy selects how a search query is interpreted.
type SearchBy string

const (
	SearchByName SearchBy = "name"
	SearchByID   SearchBy = "id"
)

// Query is the input tuple for a metadata search.
type Query struct {
	FileName string
	Platform PlatformIDs
	SearchBy SearchBy
	Term     string
}

// PlatformIDs carries the provider-specific identifiers of one platform.
// Each adapter picks the id it understands; a zero value means the provider
// has no mapping for the platform.
type PlatformIDs struct {
	IGDB int64
	Moby int64
}

// Provider is the uniform interface every metadata source implements.
// Implementations fail soft: a data miss is an empty result or an
// all-defaults record, never an error. Errors are reserved for
// configuration and connectivity failures.
type Provider interface {
	Name() string
	Platform(ctx context.Context, slug string) (Platform, error)
	RomByFile(ctx context.Context, fileName string, platform PlatformIDs) (Rom, error)
	RomByID(ctx context.Context, id int64) (Rom, error)
	SearchByName(ctx context.Context, term string, platform PlatformIDs) ([]Rom, error)
}

// ProviderID builds a nullable provider id from a raw value.
func ProviderID(id int64) *int64 {
	return &id
}
