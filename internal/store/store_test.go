package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"romdata/internal/metadata"
	"romdata/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadPlatform(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	platform := metadata.Platform{Name: "PlayStation 2", Slug: "ps2"}
	if err := s.SavePlatform(ctx, platform, metadata.PlatformIDs{IGDB: 8}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A later save from another provider fills its id without clearing the first.
	if err := s.SavePlatform(ctx, platform, metadata.PlatformIDs{Moby: 7}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, ids, err := s.PlatformBySlug(ctx, "ps2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name != "PlayStation 2" || ids.IGDB != 8 || ids.Moby != 7 {
		t.Fatalf("loaded = %+v ids = %+v", loaded, ids)
	}
}

func TestPlatformNotFound(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.PlatformBySlug(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveRomRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rom := metadata.Rom{
		ProviderID:     metadata.ProviderID(7),
		Provider:       "igdb",
		Name:           "Super Game",
		Slug:           "super-game",
		Summary:        "A game.",
		CoverURL:       "https://img/cover.png",
		ScreenshotURLs: []string{"https://img/s1.png"},
		Extra:          &metadata.Extra{Genres: []string{"Platformer"}},
	}
	saved, err := s.SaveRom(ctx, "ps2", "Super Game (USA).iso", rom)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("missing library id")
	}

	loaded, err := s.RomByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Rom.Name != "Super Game" || *loaded.Rom.ProviderID != 7 {
		t.Fatalf("loaded = %+v", loaded.Rom)
	}
	if len(loaded.Rom.ScreenshotURLs) != 1 || loaded.Rom.ScreenshotURLs[0] != "https://img/s1.png" {
		t.Fatalf("screenshots = %+v", loaded.Rom.ScreenshotURLs)
	}
	if loaded.Rom.Extra == nil || loaded.Rom.Extra.Genres[0] != "Platformer" {
		t.Fatalf("extra = %+v", loaded.Rom.Extra)
	}
}

func TestSaveRomKeepsIDOnUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveRom(ctx, "ps2", "Game.iso", metadata.Rom{Name: "Game"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := s.SaveRom(ctx, "ps2", "Game.iso", metadata.Rom{Name: "Game (fixed)"})
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("library id changed: %q vs %q", first.ID, second.ID)
	}
	if second.Rom.Name != "Game (fixed)" {
		t.Fatalf("update lost: %+v", second.Rom)
	}
}

func TestRomsByPlatformOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"b.iso", "a.iso"} {
		if _, err := s.SaveRom(ctx, "ps2", name, metadata.Rom{Name: name}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	roms, err := s.RomsByPlatform(ctx, "ps2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(roms) != 2 || roms[0].FileName != "a.iso" || roms[1].FileName != "b.iso" {
		t.Fatalf("roms = %+v", roms)
	}
}

func TestRomByIDNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RomByID(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnmatchedRomPersistsDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveRom(ctx, "ps2", "Obscure.iso", metadata.Rom{Name: "Obscure"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Rom.Matched() {
		t.Fatalf("unexpected provider id: %+v", saved.Rom)
	}
	if saved.Rom.CoverURL != metadata.DefaultCoverURL {
		t.Fatalf("cover = %q", saved.Rom.CoverURL)
	}
}
