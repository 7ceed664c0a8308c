package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIGDB(); err != nil {
		return err
	}
	c.normalizeMobyGames()
	c.normalizeProviders()
	if err := c.normalizeIndexes(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIGDB() error {
	if c.IGDB.ClientID == "" {
		if value, ok := os.LookupEnv("IGDB_CLIENT_ID"); ok {
			c.IGDB.ClientID = strings.TrimSpace(value)
		}
	}
	if c.IGDB.ClientSecret == "" {
		if value, ok := os.LookupEnv("IGDB_CLIENT_SECRET"); ok {
			c.IGDB.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.IGDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.IGDB.BaseURL), "/")
	if c.IGDB.BaseURL == "" {
		c.IGDB.BaseURL = defaultIGDBBaseURL
	}
	c.IGDB.TokenURL = strings.TrimSpace(c.IGDB.TokenURL)
	if c.IGDB.TokenURL == "" {
		c.IGDB.TokenURL = defaultIGDBTokenURL
	}
	if c.IGDB.RequestTimeout <= 0 {
		c.IGDB.RequestTimeout = defaultRequestTimeout
	}
	if c.IGDB.TokenTimeout <= 0 {
		c.IGDB.TokenTimeout = defaultTokenTimeout
	}
	return nil
}

func (c *Config) normalizeMobyGames() {
	if c.MobyGames.APIKey == "" {
		if value, ok := os.LookupEnv("MOBYGAMES_API_KEY"); ok {
			c.MobyGames.APIKey = strings.TrimSpace(value)
		}
	}
	c.MobyGames.BaseURL = strings.TrimRight(strings.TrimSpace(c.MobyGames.BaseURL), "/")
	if c.MobyGames.BaseURL == "" {
		c.MobyGames.BaseURL = defaultMobyBaseURL
	}
	if c.MobyGames.RequestTimeout <= 0 {
		c.MobyGames.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeProviders() {
	order := make([]string, 0, len(c.Providers.Order))
	seen := map[string]struct{}{}
	for _, name := range c.Providers.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}
	if len(order) == 0 {
		order = Default().Providers.Order
	}
	c.Providers.Order = order
}

func (c *Config) normalizeIndexes() error {
	if strings.TrimSpace(c.Indexes.Dir) == "" {
		c.Indexes.Dir = defaultIndexDir
	}
	var err error
	if c.Indexes.Dir, err = expandPath(c.Indexes.Dir); err != nil {
		return fmt.Errorf("indexes.dir: %w", err)
	}
	if c.Indexes.DownloadTimeout <= 0 {
		c.Indexes.DownloadTimeout = defaultDownloadTimeout
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
