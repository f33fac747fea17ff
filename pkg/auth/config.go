package auth

import (
	"fmt"
	"os"
)

// Config identifies the OpenID Connect issuer whose ID tokens are accepted
// as bearer credentials. Auth is disabled when IssuerURL is empty.
type Config struct {
	IssuerURL string `toml:"issuer_url"`
	Audience  string `toml:"audience"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	IssuerURL string
	Audience  string
}

// Enabled reports whether an issuer is configured.
func (c *Config) Enabled() bool {
	return c.IssuerURL != ""
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		override(&c.IssuerURL, env.IssuerURL)
		override(&c.Audience, env.Audience)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
}

func (c *Config) validate() error {
	if c.Enabled() && c.Audience == "" {
		return fmt.Errorf("audience required when issuer_url is set")
	}
	return nil
}

func override(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
