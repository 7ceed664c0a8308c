package moby

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"log/slog"

	"romdata/internal/logging"
	"romdata/internal/metadata"
	"romdata/internal/romname"
)

const providerName = "mobygames"

// Platforms whose filenames follow a code-based naming scheme, by MobyGames
// platform id.
const (
	ps2PlatformID    = 7
	switchPlatformID = 203
)

var arcadePlatformIDs = map[int64]struct{}{143: {}, 36: {}}

// Provider adapts the MobyGames v1 API to the metadata.Provider interface.
type Provider struct {
	client *client
	names  *romname.Resolver
	logger *slog.Logger
}

// Option customizes a Provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for API requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// New builds a MobyGames provider.
func New(baseURL, apiKey string, names *romname.Resolver, logger *slog.Logger, opts ...Option) *Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if names == nil {
		names = romname.NewResolver(romname.Indexes{}, logger)
	}
	return &Provider{
		client: newClient(baseURL, apiKey, o.httpClient, logger),
		names:  names,
		logger: logger.With(logging.String(logging.FieldComponent, "mobygames")),
	}
}

// Name identifies the provider in merge precedence and log output.
func (p *Provider) Name() string { return providerName }

type platformEntry struct {
	ID   int64  `json:"platform_id"`
	Name string `json:"platform_name"`
}

type platformList struct {
	Platforms []platformEntry `json:"platforms"`
}

// Platform resolves a platform slug against the MobyGames platform list by
// slugifying each platform name. An unknown slug resolves to the fallback
// record rather than an error.
func (p *Provider) Platform(ctx context.Context, slug string) (metadata.Platform, error) {
	var list platformList
	if err := p.client.get(ctx, "platforms", nil, &list); err != nil {
		return metadata.Platform{}, err
	}
	wanted := slugify(slug)
	for _, entry := range list.Platforms {
		if slugify(entry.Name) == wanted {
			return metadata.Platform{
				ProviderID: metadata.ProviderID(entry.ID),
				Name:       entry.Name,
				Slug:       slug,
			}, nil
		}
	}
	p.logger.DebugContext(ctx, "platform not found, using fallback",
		logging.String(logging.FieldPlatform, slug),
	)
	return metadata.FallbackPlatform(slug), nil
}

// RomByFile resolves a rom filename to its best metadata match on the given
// platform. A miss returns an all-defaults record, not an error.
func (p *Provider) RomByFile(ctx context.Context, fileName string, platform metadata.PlatformIDs) (metadata.Rom, error) {
	term := p.names.SearchTerm(ctx, fileName, schemes(platform.Moby))
	if term == "" {
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}

	games, err := p.searchGames(ctx, term, platform.Moby)
	if err != nil {
		return metadata.Rom{}, err
	}
	if len(games) == 0 && term != romname.Fold(term) {
		games, err = p.searchGames(ctx, romname.Fold(term), platform.Moby)
		if err != nil {
			return metadata.Rom{}, err
		}
	}
	if len(games) == 0 {
		p.logger.DebugContext(ctx, "no match",
			logging.String(logging.FieldSearchTerm, term),
		)
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}
	return pickExact(games, term).toRom(), nil
}

// RomByID fetches one game record by its MobyGames id.
func (p *Provider) RomByID(ctx context.Context, id int64) (metadata.Rom, error) {
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}

	var list gameList
	if err := p.client.get(ctx, "games", params, &list); err != nil {
		return metadata.Rom{}, err
	}
	if len(list.Games) == 0 {
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}
	return list.Games[0].toRom(), nil
}

// SearchByName returns every match for a free-text term, transliterated to
// ASCII first.
func (p *Provider) SearchByName(ctx context.Context, term string, platform metadata.PlatformIDs) ([]metadata.Rom, error) {
	term = romname.Fold(strings.TrimSpace(term))
	if term == "" {
		return []metadata.Rom{}, nil
	}
	games, err := p.searchGames(ctx, term, platform.Moby)
	if err != nil {
		return nil, err
	}
	roms := make([]metadata.Rom, 0, len(games))
	for _, g := range games {
		roms = append(roms, g.toRom())
	}
	return roms, nil
}

func (p *Provider) searchGames(ctx context.Context, term string, platformID int64) ([]game, error) {
	params := url.Values{"title": {term}}
	if platformID != 0 {
		params.Set("platform", strconv.FormatInt(platformID, 10))
	}

	var list gameList
	if err := p.client.get(ctx, "games", params, &list); err != nil {
		return nil, err
	}
	return list.Games, nil
}

// pickExact prefers a case-insensitive exact title match over result order.
func pickExact(games []game, term string) game {
	lowered := strings.ToLower(term)
	for _, g := range games {
		if strings.ToLower(g.Title) == lowered {
			return g
		}
	}
	return games[0]
}

// schemes maps a MobyGames platform id to the filename conventions its roms
// use.
func schemes(platformID int64) romname.Scheme {
	switch {
	case platformID == ps2PlatformID:
		return romname.SchemeDiscSerial
	case platformID == switchPlatformID:
		return romname.SchemeTitleID
	default:
		if _, ok := arcadePlatformIDs[platformID]; ok {
			return romname.SchemeArcade
		}
		return 0
	}
}

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify reduces a platform name to a comparable slug form.
func slugify(name string) string {
	slug := nonSlugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
