// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Application Application `yaml:"application"`
	Backend     Backend     `yaml:"backend"`
	Provider    Provider    `yaml:"provider"`
	Firebase    Firebase    `yaml:"firebase"`
	Store       Store       `yaml:"store"`
	Logger      Logger      `yaml:"logger"`
}

type Application struct {
	Name string `yaml:"name"`
}

type Backend struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

type Provider struct {
	ClientID     string        `yaml:"clientID"`
	RedirectURI  string        `yaml:"redirectURI"`
	AuthorizeURL string        `yaml:"authorizeURL"`
	StateTTL     time.Duration `yaml:"stateTTL"`
}

type Firebase struct {
	APIKey   string `yaml:"apiKey"`
	Endpoint string `yaml:"endpoint"`
}

// Store selects the credential store driver. Driver is one of "sqlite",
// "memory" or "valkey".
type Store struct {
	Driver string `yaml:"driver"`
	SQLite SQLite `yaml:"sqlite"`
	ValKey ValKey `yaml:"valkey"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

type ValKey struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
}

type Logger struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Load reads the first existing file among paths, then applies defaults
// and environment overrides. A missing file is not an error; the
// environment alone can carry the externally-supplied values.
func Load(paths ...string) (*Config, error) {
	cfg := &Config{}

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		break
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// applyEnv overrides the externally-supplied values. These mirror the
// environment the original deployment injected at build time.
func (c *Config) applyEnv() {
	if v := os.Getenv("STOREFRONT_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_NAVER_CLIENT_ID"); v != "" {
		c.Provider.ClientID = v
	}
	if v := os.Getenv("STOREFRONT_REDIRECT_URI"); v != "" {
		c.Provider.RedirectURI = v
	}
	if v := os.Getenv("STOREFRONT_FIREBASE_API_KEY"); v != "" {
		c.Firebase.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Application.Name == "" {
		c.Application.Name = "storefront-auth"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8080/api"
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Provider.StateTTL <= 0 {
		c.Provider.StateTTL = 10 * time.Minute
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = defaultStorePath()
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "storefront-auth.db"
	}

	return home + "/.storefront-auth/credentials.db"
}
