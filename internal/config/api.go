package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/proshot/pkg/formatting"
	"github.com/JaimeStill/proshot/pkg/middleware"
	"github.com/JaimeStill/proshot/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PROSHOT_CORS_ENABLED",
	Origins:          "PROSHOT_CORS_ORIGINS",
	AllowedMethods:   "PROSHOT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PROSHOT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PROSHOT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PROSHOT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PROSHOT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PROSHOT_PAGINATION_MAX_PAGE_SIZE",
}

const defaultMaxUploadSize = 10 << 20

// APIConfig holds module routing, upload, CORS, pagination, and submit
// throttling settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	AppPath       string                `toml:"app_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	RateLimit     RateLimitConfig       `toml:"rate_limit"`
}

// RateLimitConfig bounds submissions per session. PerMinute of zero disables it.
type RateLimitConfig struct {
	PerMinute int `toml:"per_minute"`
	Burst     int `toml:"burst"`
}

// MaxUploadSizeBytes parses MaxUploadSize, falling back to 10MB.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment overrides, and nested finalization.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.AppPath == "" {
		c.AppPath = "/app"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 6
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 2
	}

	envString(&c.BasePath, "PROSHOT_API_BASE_PATH")
	envString(&c.AppPath, "PROSHOT_API_APP_PATH")
	envString(&c.MaxUploadSize, "PROSHOT_API_MAX_UPLOAD_SIZE")
	envInt(&c.RateLimit.PerMinute, "PROSHOT_RATE_LIMIT_PER_MINUTE")
	envInt(&c.RateLimit.Burst, "PROSHOT_RATE_LIMIT_BURST")

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid rate_limit: per_minute=%d burst=%d", c.RateLimit.PerMinute, c.RateLimit.Burst)
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.AppPath != "" {
		c.AppPath = overlay.AppPath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.RateLimit.PerMinute != 0 {
		c.RateLimit.PerMinute = overlay.RateLimit.PerMinute
	}
	if overlay.RateLimit.Burst != 0 {
		c.RateLimit.Burst = overlay.RateLimit.Burst
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func envInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
