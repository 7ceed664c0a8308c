package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"romdata/internal/cache"
	"romdata/internal/config"
	"romdata/internal/logging"
	"romdata/internal/lookup"
	"romdata/internal/metadata"
	"romdata/internal/metadata/igdb"
	"romdata/internal/metadata/moby"
	"romdata/internal/resolver"
	"romdata/internal/romname"
	"romdata/internal/store"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
	})
	return c.logger, c.loggerErr
}

// environment is the wired lookup stack one command invocation works with.
type environment struct {
	config   *config.Config
	logger   *slog.Logger
	indexes  *lookup.Set
	resolver *resolver.Resolver
	store    *store.Store
}

func (e *environment) close() {
	if e.store != nil {
		e.store.Close()
	}
}

// buildEnvironment wires providers, indexes, and the library store from
// configuration. The store opens for every command so stored records stay
// reachable; with persist false resolved records are not written back.
func (c *commandContext) buildEnvironment(ctx context.Context, persist bool) (*environment, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	logger = logging.WithContext(ctx, logger)

	indexes := lookup.NewSet(cfg, logger)
	names := romname.NewResolver(romname.Indexes{
		Serials:    indexes.Serials,
		TitleIDs:   indexes.TitleIDs,
		ProductIDs: indexes.ProductIDs,
		Arcade:     indexes.Arcade,
	}, logger)

	var providers []metadata.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "igdb":
			tokens := igdb.NewTokenManager(
				cfg.IGDB.ClientID,
				cfg.IGDB.ClientSecret,
				cfg.IGDB.TokenURL,
				cache.NewMemory(),
				logger,
				igdb.WithTokenHTTPClient(&http.Client{Timeout: time.Duration(cfg.IGDB.TokenTimeout) * time.Second}),
			)
			providers = append(providers, igdb.New(
				cfg.IGDB.BaseURL,
				tokens,
				names,
				logger,
				igdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.IGDB.RequestTimeout) * time.Second}),
			))
		case "mobygames":
			providers = append(providers, moby.New(
				cfg.MobyGames.BaseURL,
				cfg.MobyGames.APIKey,
				names,
				logger,
				moby.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.MobyGames.RequestTimeout) * time.Second}),
			))
		}
	}

	env := &environment{config: cfg, logger: logger, indexes: indexes}
	var saver resolver.Saver
	st, err := store.Open(cfg)
	if err != nil {
		logger.Warn("library store unavailable", logging.Error(err))
	} else {
		env.store = st
		if persist {
			saver = storeSaver{st}
		}
	}
	env.resolver = resolver.New(providers, saver, logger)
	return env, nil
}

// storeSaver adapts the library store to the resolver's persistence hook.
type storeSaver struct {
	st *store.Store
}

func (s storeSaver) SavePlatform(ctx context.Context, platform metadata.Platform, ids metadata.PlatformIDs) error {
	return s.st.SavePlatform(ctx, platform, ids)
}

func (s storeSaver) SaveRom(ctx context.Context, platformSlug, fileName string, rom metadata.Rom) error {
	_, err := s.st.SaveRom(ctx, platformSlug, fileName, rom)
	return err
}
