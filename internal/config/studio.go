package config

import (
	"fmt"
	"time"
)

// StudioConfig governs per-browser sessions and the transformation call.
type StudioConfig struct {
	SessionTTL    string `toml:"session_ttl"`
	SweepInterval string `toml:"sweep_interval"`
	// TransformTimeout bounds each Gemini call. Empty waits indefinitely.
	TransformTimeout string `toml:"transform_timeout"`
}

func (c *StudioConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

func (c *StudioConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

func (c *StudioConfig) TransformTimeoutDuration() time.Duration {
	if c.TransformTimeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.TransformTimeout)
	return d
}

// Finalize applies defaults, PROSHOT_STUDIO_* overrides, and validation.
func (c *StudioConfig) Finalize() error {
	if c.SessionTTL == "" {
		c.SessionTTL = "2h"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "5m"
	}

	envString(&c.SessionTTL, "PROSHOT_STUDIO_SESSION_TTL")
	envString(&c.SweepInterval, "PROSHOT_STUDIO_SWEEP_INTERVAL")
	envString(&c.TransformTimeout, "PROSHOT_STUDIO_TRANSFORM_TIMEOUT")

	if d, err := time.ParseDuration(c.SessionTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid session_ttl: %q", c.SessionTTL)
	}
	if d, err := time.ParseDuration(c.SweepInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid sweep_interval: %q", c.SweepInterval)
	}
	if c.TransformTimeout != "" {
		if _, err := time.ParseDuration(c.TransformTimeout); err != nil {
			return fmt.Errorf("invalid transform_timeout: %w", err)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *StudioConfig) Merge(overlay *StudioConfig) {
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	if overlay.TransformTimeout != "" {
		c.TransformTimeout = overlay.TransformTimeout
	}
}
