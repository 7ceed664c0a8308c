package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"romdata/internal/config"
	"romdata/internal/metadata"
	"romdata/internal/services"
)

// Store persists resolved platforms and rom metadata in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the library database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the library database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS platforms (
	slug TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	igdb_id INTEGER,
	moby_id INTEGER,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS roms (
	id TEXT PRIMARY KEY,
	platform_slug TEXT NOT NULL,
	file_name TEXT NOT NULL,
	name TEXT NOT NULL,
	slug TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	provider_id INTEGER,
	cover_url TEXT NOT NULL DEFAULT '',
	screenshot_urls TEXT NOT NULL DEFAULT '[]',
	metadata TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(platform_slug, file_name)
);
CREATE INDEX IF NOT EXISTS idx_roms_platform ON roms(platform_slug);
`
	return s.execWithoutResultRetry(ctx, schema)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SavePlatform upserts one resolved platform keyed by slug.
func (s *Store) SavePlatform(ctx context.Context, platform metadata.Platform, ids metadata.PlatformIDs) error {
	var igdbID, mobyID any
	if ids.IGDB != 0 {
		igdbID = ids.IGDB
	}
	if ids.Moby != 0 {
		mobyID = ids.Moby
	}
	return s.execWithoutResultRetry(ctx, `
INSERT INTO platforms (slug, name, igdb_id, moby_id, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
	name = excluded.name,
	igdb_id = COALESCE(excluded.igdb_id, platforms.igdb_id),
	moby_id = COALESCE(excluded.moby_id, platforms.moby_id),
	updated_at = excluded.updated_at
`, platform.Slug, platform.Name, igdbID, mobyID, now())
}

// PlatformBySlug loads one platform record.
func (s *Store) PlatformBySlug(ctx context.Context, slug string) (metadata.Platform, metadata.PlatformIDs, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT slug, name, igdb_id, moby_id FROM platforms WHERE slug = ?`, slug)

	var platform metadata.Platform
	var ids metadata.PlatformIDs
	var igdbID, mobyID sql.NullInt64
	if err := row.Scan(&platform.Slug, &platform.Name, &igdbID, &mobyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metadata.Platform{}, metadata.PlatformIDs{}, services.Wrap(services.ErrNotFound, "store", "platform", slug, nil)
		}
		return metadata.Platform{}, metadata.PlatformIDs{}, fmt.Errorf("load platform: %w", err)
	}
	if igdbID.Valid {
		ids.IGDB = igdbID.Int64
		platform.ProviderID = metadata.ProviderID(igdbID.Int64)
	}
	if mobyID.Valid {
		ids.Moby = mobyID.Int64
	}
	return platform, ids, nil
}

// SavedRom is a persisted rom record with its library identity.
type SavedRom struct {
	ID           string
	PlatformSlug string
	FileName     string
	Rom          metadata.Rom
}

// SaveRom upserts a resolved rom keyed by platform and filename, returning
// the stored record. A re-save keeps the original library id.
func (s *Store) SaveRom(ctx context.Context, platformSlug, fileName string, rom metadata.Rom) (SavedRom, error) {
	ctx = ensureContext(ctx)
	rom.Normalize()

	screenshots, err := json.Marshal(rom.ScreenshotURLs)
	if err != nil {
		return SavedRom{}, fmt.Errorf("encode screenshots: %w", err)
	}
	var extra any
	if rom.Extra != nil {
		encoded, err := json.Marshal(rom.Extra)
		if err != nil {
			return SavedRom{}, fmt.Errorf("encode metadata: %w", err)
		}
		extra = string(encoded)
	}
	var providerID any
	if rom.ProviderID != nil {
		providerID = *rom.ProviderID
	}

	id := uuid.NewString()
	stamp := now()
	if err := s.execWithoutResultRetry(ctx, `
INSERT INTO roms (id, platform_slug, file_name, name, slug, summary, provider, provider_id, cover_url, screenshot_urls, metadata, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(platform_slug, file_name) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	summary = excluded.summary,
	provider = excluded.provider,
	provider_id = excluded.provider_id,
	cover_url = excluded.cover_url,
	screenshot_urls = excluded.screenshot_urls,
	metadata = excluded.metadata,
	updated_at = excluded.updated_at
`, id, platformSlug, fileName, rom.Name, rom.Slug, rom.Summary, rom.Provider, providerID, rom.CoverURL, string(screenshots), extra, stamp, stamp); err != nil {
		return SavedRom{}, fmt.Errorf("save rom: %w", err)
	}

	return s.RomByFile(ctx, platformSlug, fileName)
}

// RomByFile loads one rom record by platform and filename.
func (s *Store) RomByFile(ctx context.Context, platformSlug, fileName string) (SavedRom, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, selectRom+` WHERE platform_slug = ? AND file_name = ?`, platformSlug, fileName)
	return scanRom(row)
}

// RomByID loads one rom record by library id.
func (s *Store) RomByID(ctx context.Context, id string) (SavedRom, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, selectRom+` WHERE id = ?`, id)
	return scanRom(row)
}

// RomsByPlatform lists every stored rom for a platform in filename order.
func (s *Store) RomsByPlatform(ctx context.Context, platformSlug string) ([]SavedRom, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, selectRom+` WHERE platform_slug = ? ORDER BY file_name`, platformSlug)
	if err != nil {
		return nil, fmt.Errorf("list roms: %w", err)
	}
	defer rows.Close()

	var saved []SavedRom
	for rows.Next() {
		record, err := scanRom(rows)
		if err != nil {
			return nil, err
		}
		saved = append(saved, record)
	}
	return saved, rows.Err()
}

const selectRom = `SELECT id, platform_slug, file_name, name, slug, summary, provider, provider_id, cover_url, screenshot_urls, metadata FROM roms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRom(row rowScanner) (SavedRom, error) {
	var record SavedRom
	var providerID sql.NullInt64
	var screenshots string
	var extra sql.NullString
	err := row.Scan(
		&record.ID,
		&record.PlatformSlug,
		&record.FileName,
		&record.Rom.Name,
		&record.Rom.Slug,
		&record.Rom.Summary,
		&record.Rom.Provider,
		&providerID,
		&record.Rom.CoverURL,
		&screenshots,
		&extra,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedRom{}, services.Wrap(services.ErrNotFound, "store", "rom", "", nil)
		}
		return SavedRom{}, fmt.Errorf("load rom: %w", err)
	}
	if providerID.Valid {
		record.Rom.ProviderID = metadata.ProviderID(providerID.Int64)
	}
	if err := json.Unmarshal([]byte(screenshots), &record.Rom.ScreenshotURLs); err != nil {
		return SavedRom{}, fmt.Errorf("decode screenshots: %w", err)
	}
	if extra.Valid && extra.String != "" {
		record.Rom.Extra = &metadata.Extra{}
		if err := json.Unmarshal([]byte(extra.String), record.Rom.Extra); err != nil {
			return SavedRom{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	record.Rom.Normalize()
	return record, nil
}
