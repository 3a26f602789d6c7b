package weather

import (
	"fmt"
	"os"
	"time"
)

// Config holds OpenWeatherMap client parameters.
// An empty APIKey is valid and disables lookups.
type Config struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Units           string `toml:"units"`
	Timeout         string `toml:"timeout"`
	DefaultLocation string `toml:"default_location"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey          string
	BaseURL         string
	Units           string
	Timeout         string
	DefaultLocation string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
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
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Units != "" {
		c.Units = overlay.Units
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.DefaultLocation != "" {
		c.DefaultLocation = overlay.DefaultLocation
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if c.Units == "" {
		c.Units = "metric"
	}
	if c.Timeout == "" {
		c.Timeout = "5s"
	}
	if c.DefaultLocation == "" {
		c.DefaultLocation = "London,UK"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Units != "" {
		if v := os.Getenv(env.Units); v != "" {
			c.Units = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.DefaultLocation != "" {
		if v := os.Getenv(env.DefaultLocation); v != "" {
			c.DefaultLocation = v
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
