package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateIGDB(); err != nil {
		return err
	}
	if err := c.validateMobyGames(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	if len(c.Providers.Order) == 0 {
		return errors.New("providers.order must list at least one provider")
	}
	for _, name := range c.Providers.Order {
		switch name {
		case "igdb", "mobygames":
		default:
			return fmt.Errorf("providers.order: unknown provider %q", name)
		}
	}
	return nil
}

func (c *Config) validateIGDB() error {
	if !c.ProviderEnabled("igdb") {
		return nil
	}
	if strings.TrimSpace(c.IGDB.ClientID) == "" || strings.TrimSpace(c.IGDB.ClientSecret) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/romdata/config.toml"
		}
		return fmt.Errorf("igdb.client_id and igdb.client_secret are required. Set IGDB_CLIENT_ID/IGDB_CLIENT_SECRET env vars or edit %s (create with 'romdata config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateMobyGames() error {
	if !c.ProviderEnabled("mobygames") {
		return nil
	}
	if strings.TrimSpace(c.MobyGames.APIKey) == "" {
		return errors.New("mobygames.api_key is required. Set MOBYGAMES_API_KEY env var or remove mobygames from providers.order")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ProviderEnabled reports whether the named provider appears in the
// configured query order.
func (c *Config) ProviderEnabled(name string) bool {
	for _, candidate := range c.Providers.Order {
		if candidate == name {
			return true
		}
	}
	return false
}
