package transform

import (
	"fmt"
	"os"
)

// DefaultModel is the Gemini model used for image edits.
const DefaultModel = "gemini-2.5-flash-image"

// Config holds Gemini API settings.
type Config struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey string
	Model  string
}

// Finalize applies defaults, environment variable overrides, and validation.
// GEMINI_API_KEY is honored when the mapped variable is unset.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
}

func (c *Config) loadDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	return nil
}
