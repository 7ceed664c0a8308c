package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"romdata/internal/logging"
)

const (
	defaultCatalogMaxAge   = 30 * 24 * time.Hour
	defaultDownloadTimeout = 5 * time.Minute
)

// parseFunc decodes a downloaded index file into a code-to-title map.
type parseFunc func(data []byte) (map[string]string, error)

// Catalog lazily loads and caches one code-to-title index file. The file is
// downloaded on first use when absent and replaced atomically on refresh, so
// concurrent processes sharing the index directory never observe a partial
// file.
type Catalog struct {
	name       string
	path       string
	url        string
	parse      parseFunc
	mu         sync.RWMutex
	entries    map[string]string
	modTime    time.Time
	maxAge     time.Duration
	refreshing atomic.Bool
	logger     *slog.Logger
	client     *http.Client
}

// NewCatalog creates a catalog for the given index file. If path is empty,
// nil is returned and every lookup on the nil catalog misses.
func NewCatalog(name, path, url string, parse parseFunc, logger *slog.Logger, timeout time.Duration) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &Catalog{
		name:   name,
		path:   trimmed,
		url:    strings.TrimSpace(url),
		parse:  parse,
		maxAge: defaultCatalogMaxAge,
		logger: logger.With(logging.String(logging.FieldComponent, "lookup")),
		client: &http.Client{Timeout: timeout},
	}
}

// Lookup resolves a code to its canonical title. Lookups are best-effort:
// a missing entry, an absent index that cannot be downloaded, and a nil
// catalog all report a miss rather than an error.
func (c *Catalog) Lookup(ctx context.Context, code string) (string, bool) {
	if c == nil {
		return "", false
	}
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return "", false
	}
	if err := c.ensureLoaded(ctx); err != nil {
		c.logger.WarnContext(ctx, "index unavailable",
			logging.String("index", c.name),
			logging.Error(err),
			logging.String(logging.FieldEventType, "index_load_failed"),
			logging.String(logging.FieldErrorHint, "check network access or the configured index url"),
		)
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	title, ok := c.entries[normalized]
	return title, ok
}

// ensureLoaded makes the in-memory map current: download once if the file is
// absent, reload if the file changed on disk, and kick a background refresh
// when the file has gone stale.
func (c *Catalog) ensureLoaded(ctx context.Context) error {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := c.Refresh(ctx, false); err != nil {
			c.mu.Lock()
			c.entries = map[string]string{}
			c.modTime = time.Time{}
			c.mu.Unlock()
			return err
		}
		info, err = os.Stat(c.path)
	}
	if err != nil {
		return err
	}

	c.mu.RLock()
	current := c.entries != nil && c.modTime.Equal(info.ModTime())
	c.mu.RUnlock()
	if current {
		c.refreshAsync()
		return nil
	}

	if err := c.loadFromDisk(info); err != nil {
		return err
	}
	c.refreshAsync()
	return nil
}

func (c *Catalog) loadFromDisk(info fs.FileInfo) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	entries, err := c.parse(data)
	if err != nil {
		return fmt.Errorf("parse %s index: %w", c.name, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.modTime = info.ModTime()
	c.mu.Unlock()

	c.logger.Debug("index loaded",
		logging.String("index", c.name),
		logging.Int("entries", len(entries)),
	)
	return nil
}

func (c *Catalog) stale() bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	return c.maxAge > 0 && time.Since(info.ModTime()) > c.maxAge
}

func (c *Catalog) refreshAsync() {
	if !c.stale() {
		return
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		if err := c.Refresh(context.Background(), true); err != nil {
			c.logger.Warn("index refresh failed; lookups may be stale",
				logging.String("index", c.name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "index_refresh_failed"),
			)
		}
	}()
}

// Refresh downloads the index and atomically replaces the on-disk file. A
// file lock serializes the download across processes sharing the index
// directory. Unless force is set, refresh is skipped when a fresh file is
// already present (a concurrent process may have downloaded it first).
func (c *Catalog) Refresh(ctx context.Context, force bool) error {
	if c == nil {
		return nil
	}
	if c.url == "" {
		return fmt.Errorf("%s index has no download url", c.name)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	lock := flock.New(c.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s index: %w", c.name, err)
	}
	defer lock.Unlock()

	if !force && !c.stale() {
		if info, err := os.Stat(c.path); err == nil {
			return c.loadFromDisk(info)
		}
	}

	c.logger.Debug("downloading index",
		logging.String("index", c.name),
		logging.String("url", c.url),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build %s index request: %w", c.name, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s index: %w", c.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s index: unexpected status %d", c.name, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download %s index: %w", c.name, err)
	}

	// Validate before replacing so a bad download never clobbers a good file.
	entries, err := c.parse(data)
	if err != nil {
		return fmt.Errorf("parse %s index: %w", c.name, err)
	}

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write index temp file: %w", err)
	}
	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace index file: %w", err)
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.modTime = info.ModTime()
	c.mu.Unlock()

	c.logger.Debug("index refreshed",
		logging.String("index", c.name),
		logging.Int("entries", len(entries)),
		logging.Int("bytes", len(data)),
	)
	return nil
}
