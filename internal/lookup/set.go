package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"log/slog"

	"romdata/internal/config"
)

// Index file names under the configured index directory.
const (
	serialsFile    = "ps2_opl_index.json"
	titleDBFile    = "switch_titledb.json"
	productIDsFile = "switch_product_ids.json"
	arcadeFile     = "mame_index.xml"
)

// Set bundles the four filename-resolution indexes. Individual catalogs may
// be nil when their index is disabled by configuration.
type Set struct {
	Serials    *Catalog
	TitleIDs   *Catalog
	ProductIDs *Catalog
	Arcade     *Catalog
}

// NewSet builds the index catalogs from configuration. Files live under the
// configured index directory and download from the configured URLs.
func NewSet(cfg *config.Config, logger *slog.Logger) *Set {
	dir := cfg.Indexes.Dir
	timeout := time.Duration(cfg.Indexes.DownloadTimeout) * time.Second
	return &Set{
		Serials:    NewCatalog("serials", filepath.Join(dir, serialsFile), cfg.Indexes.SerialsURL, parseSerials, logger, timeout),
		TitleIDs:   NewCatalog("titledb", filepath.Join(dir, titleDBFile), cfg.Indexes.TitleDBURL, parseTitleDB, logger, timeout),
		ProductIDs: NewCatalog("productids", filepath.Join(dir, productIDsFile), cfg.Indexes.ProductIDsURL, parseTitleDB, logger, timeout),
		Arcade:     NewCatalog("arcade", filepath.Join(dir, arcadeFile), cfg.Indexes.ArcadeURL, parseArcade, logger, timeout),
	}
}

// RefreshAll refreshes every catalog in the set, collecting failures so one
// unreachable index does not block the others.
func (s *Set) RefreshAll(ctx context.Context, force bool) error {
	var errs []error
	for _, catalog := range []*Catalog{s.Serials, s.TitleIDs, s.ProductIDs, s.Arcade} {
		if catalog == nil {
			continue
		}
		if err := catalog.Refresh(ctx, force); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
