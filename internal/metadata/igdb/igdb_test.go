package igdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"romdata/internal/cache"
	"romdata/internal/metadata"
	"romdata/internal/romname"
	"romdata/internal/services"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	tokens := NewTokenManager("id", "secret", "", cache.NewMemory(), nil, WithStaticToken("tok"))
	provider := New(server.URL, tokens, nil, nil, WithHTTPClient(server.Client()))
	return provider, server
}

func TestPlatformFound(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/platforms" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`[{"id": 8, "name": "PlayStation 2", "slug": "ps2"}]`))
	}))

	platform, err := provider.Platform(context.Background(), "ps2")
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	if platform.ProviderID == nil || *platform.ProviderID != 8 || platform.Name != "PlayStation 2" {
		t.Fatalf("platform = %+v", platform)
	}
}

func TestPlatformVersionFallback(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/platforms" {
			w.Write([]byte(`[]`))
			return
		}
		if r.URL.Path != "/platform_versions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": 495, "name": "Game Boy Color", "slug": "gbc"}]`))
	}))

	platform, err := provider.Platform(context.Background(), "gbc")
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	if platform.ProviderID == nil || *platform.ProviderID != 495 {
		t.Fatalf("platform = %+v", platform)
	}
}

func TestPlatformFallsBackToSlug(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))

	platform, err := provider.Platform(context.Background(), "neo-geo-pocket")
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	if platform.ProviderID != nil || platform.Name != "Neo Geo Pocket" {
		t.Fatalf("platform = %+v", platform)
	}
}

func TestRomByFileCategoryFallback(t *testing.T) {
	var queries []string
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		queries = append(queries, string(body))
		if len(queries) < 3 {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"id": 7, "name": "Super Game", "slug": "super-game", "cover": {"url": "//images.igdb.com/t_thumb/abc.jpg"}}]`))
	}))

	rom, err := provider.RomByFile(context.Background(), "Super Game (USA).rom", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if !rom.Matched() || *rom.ProviderID != 7 {
		t.Fatalf("rom = %+v", rom)
	}
	if rom.CoverURL != "https://images.igdb.com/t_cover_big/abc.jpg" {
		t.Fatalf("cover = %q", rom.CoverURL)
	}
	if len(queries) != 3 {
		t.Fatalf("expected three passes, got %d", len(queries))
	}
	if !strings.Contains(queries[0], "category=0") {
		t.Fatalf("first pass should restrict to main games: %q", queries[0])
	}
	if !strings.Contains(queries[1], "category=10") {
		t.Fatalf("second pass should allow expanded games: %q", queries[1])
	}
	if strings.Contains(queries[2], "category=") {
		t.Fatalf("third pass should be unrestricted: %q", queries[2])
	}
}

func TestRomByFilePrefersExactMatch(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "name": "Super Game II"},
			{"id": 2, "name": "super game"}
		]`))
	}))

	rom, err := provider.RomByFile(context.Background(), "Super Game.rom", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if *rom.ProviderID != 2 {
		t.Fatalf("exact match not preferred: %+v", rom)
	}
}

func TestRomByFilePrefersExactSlugMatch(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "name": "Super Mario Bros Deluxe", "slug": "super-mario-bros-deluxe"},
			{"id": 2, "name": "Super Mario Bros.", "slug": "super-mario-bros"}
		]`))
	}))

	rom, err := provider.RomByFile(context.Background(), "super-mario-bros.rom", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if *rom.ProviderID != 2 {
		t.Fatalf("slug match not preferred: %+v", rom)
	}
}

func TestRomByFileMissReturnsDefaults(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))

	rom, err := provider.RomByFile(context.Background(), "Obscure Title.rom", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if rom.Matched() {
		t.Fatalf("expected miss, got %+v", rom)
	}
	if rom.CoverURL != metadata.DefaultCoverURL || rom.ScreenshotURLs == nil {
		t.Fatalf("miss record not normalized: %+v", rom)
	}
}

func TestRomByFileSearchEndpointFallback(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/games" {
			w.Write([]byte(`[]`))
			return
		}
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"game": {"id": 42, "name": "Alt Named Game", "slug": "alt-named-game"}}]`))
	}))

	rom, err := provider.RomByFile(context.Background(), "Alt Name.rom", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if !rom.Matched() || *rom.ProviderID != 42 {
		t.Fatalf("rom = %+v", rom)
	}
}

func TestRomByFileUsesSerialIndex(t *testing.T) {
	var lastQuery string
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastQuery = string(body)
		w.Write([]byte(`[{"id": 3, "name": "Canonical Title"}]`))
	}))
	provider.names = romname.NewResolver(romname.Indexes{
		Serials: staticIndex{"SCUS_123.45": "Canonical Title"},
	}, nil)

	rom, err := provider.RomByFile(context.Background(), "SCUS_123.45.shorthand.iso", metadata.PlatformIDs{IGDB: ps2PlatformID})
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if !rom.Matched() {
		t.Fatalf("rom = %+v", rom)
	}
	if !strings.Contains(lastQuery, `search "Canonical Title";`) {
		t.Fatalf("serial-derived term not used: %q", lastQuery)
	}
}

func TestRomByIDReturnsExtendedMetadata(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "where id=7;") {
			t.Errorf("query = %q", body)
		}
		w.Write([]byte(`[{
			"id": 7,
			"name": "Super Game",
			"slug": "super-game",
			"summary": "A game.",
			"total_rating": 87.5,
			"first_release_date": 978307200,
			"genres": [{"id": 1, "name": "Platformer"}],
			"screenshots": [{"url": "//images.igdb.com/t_thumb/s1.jpg"}],
			"expansions": [{"id": 8, "name": "Super Game: Winter", "slug": "super-game-winter", "cover": {"url": "//images.igdb.com/t_thumb/w.jpg"}}]
		}]`))
	}))

	rom, err := provider.RomByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if rom.Extra == nil {
		t.Fatal("extended metadata missing")
	}
	if rom.Extra.TotalRating != "87.50" {
		t.Fatalf("rating = %q", rom.Extra.TotalRating)
	}
	if len(rom.ScreenshotURLs) != 1 || rom.ScreenshotURLs[0] != "https://images.igdb.com/t_original/s1.jpg" {
		t.Fatalf("screenshots = %+v", rom.ScreenshotURLs)
	}
	exp := rom.Extra.Expansions
	if len(exp) != 1 || exp[0].Kind != metadata.RelationExpansion || exp[0].CoverURL != "https://images.igdb.com/t_cover_big/w.jpg" {
		t.Fatalf("expansions = %+v", exp)
	}
}

func TestSearchByNameDeduplicatesAcrossPasses(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "category=0") {
			w.Write([]byte(`[{"id": 1, "name": "Super Game"}]`))
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Super Game"}, {"id": 2, "name": "Super Game: Expanded"}]`))
	}))

	roms, err := provider.SearchByName(context.Background(), "Super Game", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(roms) != 2 {
		t.Fatalf("expected two unique results, got %d: %+v", len(roms), roms)
	}
	if *roms[0].ProviderID != 1 || *roms[1].ProviderID != 2 {
		t.Fatalf("order lost: %+v", roms)
	}
}

func TestSearchByNameTransliteratesTerm(t *testing.T) {
	var queries []string
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		queries = append(queries, string(body))
		w.Write([]byte(`[]`))
	}))

	if _, err := provider.SearchByName(context.Background(), "Pokémon", metadata.PlatformIDs{IGDB: 19}); err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, query := range queries {
		if strings.Contains(query, "é") {
			t.Fatalf("term not transliterated: %q", query)
		}
		if !strings.Contains(query, "Pokemon") {
			t.Fatalf("folded term missing: %q", query)
		}
	}
}

func TestSearchByNameIncludesAlternativeNameMatches(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			w.Write([]byte(`[
				{"game": {"id": 1, "name": "Super Game", "slug": "super-game"}},
				{"game": {"id": 3, "name": "Alt Game", "slug": "alt-game"}}
			]`))
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Super Game", "slug": "super-game"}]`))
	}))

	roms, err := provider.SearchByName(context.Background(), "Super Game", metadata.PlatformIDs{IGDB: 19})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(roms) != 2 {
		t.Fatalf("expected two unique results, got %d: %+v", len(roms), roms)
	}
	if *roms[0].ProviderID != 1 || *roms[1].ProviderID != 3 {
		t.Fatalf("alternative-name match missing: %+v", roms)
	}
}

func TestQueryRefreshesTokenOn401(t *testing.T) {
	var calls int
	var authHeaders []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Super Game"}]`))
	}))
	defer api.Close()

	var exchanges int
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exchanges++
		w.Write([]byte(`{"access_token": "tok-fresh", "expires_in": 3600}`))
	}))
	defer auth.Close()

	store := cache.NewMemory()
	store.Set("romdata:igdb_token", "tok-stale", 0)
	tokens := NewTokenManager("id", "secret", auth.URL, store, nil)
	provider := New(api.URL, tokens, nil, nil, WithHTTPClient(api.Client()))

	rom, err := provider.RomByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("rom: %v", err)
	}
	if !rom.Matched() {
		t.Fatalf("rom = %+v", rom)
	}
	if exchanges != 1 {
		t.Fatalf("expected one token exchange, got %d", exchanges)
	}
	if authHeaders[0] != "Bearer tok-stale" || authHeaders[1] != "Bearer tok-fresh" {
		t.Fatalf("auth headers = %v", authHeaders)
	}
}

func TestQueryDegradesAfterSecond401(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"access_token": "tok", "expires_in": 3600}`))
	}))
	defer auth.Close()

	tokens := NewTokenManager("id", "secret", auth.URL, cache.NewMemory(), nil)
	provider := New(api.URL, tokens, nil, nil, WithHTTPClient(api.Client()))

	rom, err := provider.RomByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if rom.Matched() {
		t.Fatalf("rom = %+v", rom)
	}
}

func TestQueryDegradesOnServerError(t *testing.T) {
	provider, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	roms, err := provider.SearchByName(context.Background(), "anything", metadata.PlatformIDs{})
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if len(roms) != 0 {
		t.Fatalf("roms = %+v", roms)
	}
}

func TestQueryUnreachableIsFatal(t *testing.T) {
	tokens := NewTokenManager("", "", "", nil, nil, WithStaticToken("tok"))
	provider := New("http://127.0.0.1:1", tokens, nil, nil)

	_, err := provider.RomByID(context.Background(), 1)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !services.Fatal(err) {
		t.Fatal("unreachable provider should be fatal")
	}
}

type staticIndex map[string]string

func (s staticIndex) Lookup(_ context.Context, code string) (string, bool) {
	title, ok := s[code]
	return title, ok
}
