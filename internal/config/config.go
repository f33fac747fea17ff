// Package config loads service configuration from TOML files and PROSHOT_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/proshot/internal/transform"
	"github.com/JaimeStill/proshot/pkg/auth"
	"github.com/JaimeStill/proshot/pkg/database"
	"github.com/JaimeStill/proshot/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvProshotEnv             = "PROSHOT_ENV"
	EnvProshotShutdownTimeout = "PROSHOT_SHUTDOWN_TIMEOUT"
	EnvProshotVersion         = "PROSHOT_VERSION"
)

// DatabaseEnv maps database settings to PROSHOT_DB_* variables. cmd/migrate
// shares it so both binaries resolve the same connection.
var DatabaseEnv = &database.Env{
	DSN:             "PROSHOT_DB_DSN",
	Host:            "PROSHOT_DB_HOST",
	Port:            "PROSHOT_DB_PORT",
	Name:            "PROSHOT_DB_NAME",
	User:            "PROSHOT_DB_USER",
	Password:        "PROSHOT_DB_PASSWORD",
	SSLMode:         "PROSHOT_DB_SSL_MODE",
	MaxOpenConns:    "PROSHOT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PROSHOT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PROSHOT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PROSHOT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PROSHOT_STORAGE_CONTAINER_NAME",
	ConnectionString: "PROSHOT_STORAGE_CONNECTION_STRING",
	AccountURL:       "PROSHOT_STORAGE_ACCOUNT_URL",
	Prefix:           "PROSHOT_STORAGE_PREFIX",
}

var authEnv = &auth.Env{
	IssuerURL: "PROSHOT_AUTH_ISSUER_URL",
	Audience:  "PROSHOT_AUTH_AUDIENCE",
}

var geminiEnv = &transform.Env{
	APIKey: "PROSHOT_GEMINI_API_KEY",
	Model:  "PROSHOT_GEMINI_MODEL",
}

// Config is the root configuration for the ProShot service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Auth            auth.Config      `toml:"auth"`
	API             APIConfig        `toml:"api"`
	Studio          StudioConfig     `toml:"studio"`
	Gemini          transform.Config `toml:"gemini"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the PROSHOT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvProshotEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from the working directory when present, merges the
// PROSHOT_ENV overlay, and finalizes every section.
func Load() (*Config, error) {
	return LoadDir(".")
}

// LoadDir is Load rooted at dir.
func LoadDir(dir string) (*Config, error) {
	cfg := &Config{}

	base := dir + string(os.PathSeparator) + BaseConfigFile
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
	c.Studio.Merge(&overlay.Studio)
	c.Gemini.Merge(&overlay.Gemini)
}

func (c *Config) finalize() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvProshotShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvProshotVersion); v != "" {
		c.Version = v
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(DatabaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"api", c.API.Finalize},
		{"studio", c.Studio.Finalize},
		{"gemini", func() error { return c.Gemini.Finalize(geminiEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	env := os.Getenv(EnvProshotEnv)
	if env == "" {
		return ""
	}
	path := dir + string(os.PathSeparator) + fmt.Sprintf(OverlayConfigPattern, env)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
