package database

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds database connection settings.
type Config struct {
	Host                  string `yaml:"host" envconfig:"DB_HOST"`
	Port                  string `yaml:"port" envconfig:"DB_PORT"`
	User                  string `yaml:"user" envconfig:"DB_USER"`
	Password              string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name                  string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode               string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections        int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds" envconfig:"DB_CONNECT_TIMEOUT_SECONDS"`
	// WaitSeconds bounds how long migrations wait for the server to accept connections.
	WaitSeconds int `yaml:"wait_seconds" envconfig:"DB_WAIT_SECONDS"`
}

// Normalize fills defaults for optional fields.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = 5
	}
	if c.WaitSeconds <= 0 {
		c.WaitSeconds = 30
	}
}

// DSN returns the key=value connection string used by lib/pq.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL returns the postgres:// form expected by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnectTimeout returns the bound for one connect attempt.
func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}
