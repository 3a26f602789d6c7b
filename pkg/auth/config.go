package auth

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds OpenID Connect bearer token validation settings.
type Config struct {
	Enabled   bool   `toml:"enabled"`
	IssuerURL string `toml:"issuer_url"`
	ClientID  string `toml:"client_id"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled   string
	IssuerURL string
	ClientID  string
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.IssuerURL != "" {
		if v := os.Getenv(env.IssuerURL); v != "" {
			c.IssuerURL = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth is enabled")
	}
	return nil
}
