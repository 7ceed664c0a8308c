package igdb

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"log/slog"

	"romdata/internal/logging"
	"romdata/internal/metadata"
	"romdata/internal/romname"
)

const providerName = "igdb"

const searchLimit = 25

// Provider adapts the IGDB v4 API to the metadata.Provider interface.
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

// New builds an IGDB provider over the given token manager and filename
// resolver.
func New(baseURL string, tokens *TokenManager, names *romname.Resolver, logger *slog.Logger, opts ...Option) *Provider {
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
		client: newClient(baseURL, tokens, o.httpClient, logger),
		names:  names,
		logger: logger.With(logging.String(logging.FieldComponent, "igdb")),
	}
}

// Name identifies the provider in merge precedence and log output.
func (p *Provider) Name() string { return providerName }

// Platform resolves a platform slug, falling back to platform versions for
// hardware revisions IGDB models separately. An unknown slug resolves to the
// fallback record rather than an error.
func (p *Provider) Platform(ctx context.Context, slug string) (metadata.Platform, error) {
	query := fmt.Sprintf(`fields id,name,slug; where slug="%s";`, escapeTerm(slug))

	var platforms []platform
	if err := p.client.query(ctx, "platforms", query, &platforms); err != nil {
		return metadata.Platform{}, err
	}
	if len(platforms) == 0 {
		if err := p.client.query(ctx, "platform_versions", query, &platforms); err != nil {
			return metadata.Platform{}, err
		}
	}
	if len(platforms) == 0 {
		p.logger.DebugContext(ctx, "platform not found, using fallback",
			logging.String(logging.FieldPlatform, slug),
		)
		return metadata.FallbackPlatform(slug), nil
	}
	found := platforms[0]
	return metadata.Platform{
		ProviderID: metadata.ProviderID(found.ID),
		Name:       found.Name,
		Slug:       found.Slug,
	}, nil
}

// RomByFile resolves a rom filename to its best metadata match on the given
// platform. A miss returns an all-defaults record, not an error.
func (p *Provider) RomByFile(ctx context.Context, fileName string, platform metadata.PlatformIDs) (metadata.Rom, error) {
	term := p.names.SearchTerm(ctx, fileName, schemes(platform.IGDB))
	if term == "" {
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}

	match, found, err := p.searchWithFallback(ctx, term, platform.IGDB)
	if err != nil {
		return metadata.Rom{}, err
	}
	if !found && term != romname.Fold(term) {
		match, found, err = p.searchWithFallback(ctx, romname.Fold(term), platform.IGDB)
		if err != nil {
			return metadata.Rom{}, err
		}
	}
	if !found {
		p.logger.DebugContext(ctx, "no match",
			logging.String(logging.FieldSearchTerm, term),
			logging.Int64(logging.FieldPlatform, platform.IGDB),
		)
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}
	return match.toRom(), nil
}

// RomByID fetches one game record by its IGDB id.
func (p *Provider) RomByID(ctx context.Context, id int64) (metadata.Rom, error) {
	query := fmt.Sprintf("fields %s; where id=%d;", gameFields, id)

	var games []game
	if err := p.client.query(ctx, "games", query, &games); err != nil {
		return metadata.Rom{}, err
	}
	if len(games) == 0 {
		var empty metadata.Rom
		empty.Normalize()
		return empty, nil
	}
	return games[0].toRom(), nil
}

// SearchByName returns every match for a free-text term. The term is
// transliterated to ASCII, the category fallback chain runs first, then the
// search endpoint extends the list with alternative-name matches; results
// deduplicate by game id across all passes.
func (p *Provider) SearchByName(ctx context.Context, term string, platform metadata.PlatformIDs) ([]metadata.Rom, error) {
	term = romname.Fold(strings.TrimSpace(term))
	if term == "" {
		return []metadata.Rom{}, nil
	}

	seen := make(map[int64]struct{})
	roms := make([]metadata.Rom, 0)
	collect := func(games []game) {
		for _, g := range games {
			if _, dup := seen[g.ID]; dup {
				continue
			}
			seen[g.ID] = struct{}{}
			roms = append(roms, g.toRom())
		}
	}

	for _, category := range []int{mainGameCategory, expandedGameCategory, -1} {
		games, err := p.searchGames(ctx, term, platform.IGDB, category)
		if err != nil {
			return nil, err
		}
		collect(games)
	}

	alternatives, err := p.searchAlternatives(ctx, term, platform.IGDB)
	if err != nil {
		return nil, err
	}
	collect(alternatives)
	return roms, nil
}

// searchWithFallback walks the category chain and prefers an exact title
// match within each pass; the first pass with results wins. When the games
// endpoint finds nothing, the search endpoint is tried since it also matches
// alternative names.
func (p *Provider) searchWithFallback(ctx context.Context, term string, platformID int64) (game, bool, error) {
	for _, category := range []int{mainGameCategory, expandedGameCategory, -1} {
		games, err := p.searchGames(ctx, term, platformID, category)
		if err != nil {
			return game{}, false, err
		}
		if len(games) > 0 {
			return pickExact(games, term), true, nil
		}
	}

	alternatives, err := p.searchAlternatives(ctx, term, platformID)
	if err != nil {
		return game{}, false, err
	}
	if len(alternatives) > 0 {
		return alternatives[0], true, nil
	}
	return game{}, false, nil
}

// searchAlternatives queries the search endpoint, which also matches the
// alternative names the games endpoint misses.
func (p *Provider) searchAlternatives(ctx context.Context, term string, platformID int64) ([]game, error) {
	fields := strings.ReplaceAll(gameFields, ",", ",game.")
	query := fmt.Sprintf(`fields game.%s; where name~"%s"; limit %d;`, fields, escapeTerm(term), searchLimit)
	if platformID != 0 {
		query = fmt.Sprintf(`fields game.%s; where game.platforms=[%d] & name~"%s"; limit %d;`,
			fields, platformID, escapeTerm(term), searchLimit)
	}

	var results []searchResult
	if err := p.client.query(ctx, "search", query, &results); err != nil {
		return nil, err
	}
	games := make([]game, 0, len(results))
	for _, result := range results {
		if result.Game.ID != 0 {
			games = append(games, result.Game)
		}
	}
	return games, nil
}

// searchGames runs one APIcalypse search pass. A negative category means
// unrestricted.
func (p *Provider) searchGames(ctx context.Context, term string, platformID int64, category int) ([]game, error) {
	var filters []string
	if platformID != 0 {
		filters = append(filters, fmt.Sprintf("platforms=[%d]", platformID))
	}
	if category >= 0 {
		filters = append(filters, fmt.Sprintf("category=%d", category))
	}
	where := ""
	if len(filters) > 0 {
		where = " where " + strings.Join(filters, " & ") + ";"
	}
	query := fmt.Sprintf(`search "%s"; fields %s;%s limit %d;`, escapeTerm(term), gameFields, where, searchLimit)

	var games []game
	if err := p.client.query(ctx, "games", query, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// pickExact prefers a case-insensitive exact match on title or slug over
// result order, so slug-form terms resolve precisely.
func pickExact(games []game, term string) game {
	lowered := strings.ToLower(term)
	for _, g := range games {
		if strings.ToLower(g.Name) == lowered || strings.ToLower(g.Slug) == lowered {
			return g
		}
	}
	return games[0]
}

// schemes maps an IGDB platform id to the filename conventions its roms use.
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

func escapeTerm(term string) string {
	return strings.ReplaceAll(term, `"`, `\"`)
}
