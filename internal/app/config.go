// Package app wires the storefront: configuration, infrastructure and the bot.
package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/internal/bot"
)

// ShopConfig holds storefront settings.
type ShopConfig struct {
	Name        string `yaml:"name" envconfig:"SHOP_NAME"`
	Currency    string `yaml:"currency" envconfig:"SHOP_CURRENCY"`
	CancelText  string `yaml:"cancel_text" envconfig:"SHOP_CANCEL_TEXT"`
	SupportText string `yaml:"support_text" envconfig:"SHOP_SUPPORT_TEXT"`

	SessionTTLMinutes       int `yaml:"session_ttl_minutes" envconfig:"SHOP_SESSION_TTL_MINUTES"`
	StoreTimeoutSeconds     int `yaml:"store_timeout_seconds" envconfig:"SHOP_STORE_TIMEOUT_SECONDS"`
	BroadcastConcurrency    int `yaml:"broadcast_concurrency" envconfig:"SHOP_BROADCAST_CONCURRENCY"`
	BroadcastTimeoutSeconds int `yaml:"broadcast_timeout_seconds" envconfig:"SHOP_BROADCAST_TIMEOUT_SECONDS"`

	PaymentURL      string `yaml:"payment_url" envconfig:"SHOP_PAYMENT_URL"`
	SeedDemoCatalog bool   `yaml:"seed_demo_catalog" envconfig:"SHOP_SEED_DEMO_CATALOG"`
}

// Normalize validates the section and fills defaults.
func (c *ShopConfig) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "Shop"
	}
	if c.Currency == "" {
		c.Currency = "₽"
	}
	c.CancelText = strings.TrimSpace(c.CancelText)
	if c.CancelText == "" {
		c.CancelText = bot.DefaultCancelLabel
	}
	if strings.HasPrefix(c.CancelText, "/") {
		return fmt.Errorf("shop.cancel_text must be a button label, got %q", c.CancelText)
	}
	if c.SessionTTLMinutes < 0 || c.StoreTimeoutSeconds < 0 ||
		c.BroadcastConcurrency < 0 || c.BroadcastTimeoutSeconds < 0 {
		return fmt.Errorf("shop: durations and concurrency must be >= 0")
	}
	if c.SessionTTLMinutes == 0 {
		c.SessionTTLMinutes = 30
	}
	if c.StoreTimeoutSeconds == 0 {
		c.StoreTimeoutSeconds = 5
	}
	if c.BroadcastConcurrency == 0 {
		c.BroadcastConcurrency = 8
	}
	if c.BroadcastTimeoutSeconds == 0 {
		c.BroadcastTimeoutSeconds = 10
	}
	return nil
}

// SessionTTL is how long an untouched dialogue stays pending.
func (c ShopConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Shop     ShopConfig      `yaml:"shop"`
}

// CoreConfig exposes the framework part of the configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads YAML from path, applies environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	cfg.Database.Normalize()
	if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
		return nil, fmt.Errorf("database.host and database.name are required")
	}
	if err := cfg.Shop.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
