package models

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Embedding providers.
const (
	ProviderGenAI  = "genai"
	ProviderOllama = "ollama"
)

// Config holds model provider parameters for vision, reasoning, and embedding calls.
type Config struct {
	APIKey            string `toml:"api_key"`
	VisionModel       string `toml:"vision_model"`
	ReasoningModel    string `toml:"reasoning_model"`
	EmbeddingModel    string `toml:"embedding_model"`
	EmbeddingProvider string `toml:"embedding_provider"`
	OllamaURL         string `toml:"ollama_url"`
	Dimensions        int    `toml:"dimensions"`
	Timeout           string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey            string
	VisionModel       string
	ReasoningModel    string
	EmbeddingModel    string
	EmbeddingProvider string
	OllamaURL         string
	Dimensions        string
	Timeout           string
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
	if overlay.VisionModel != "" {
		c.VisionModel = overlay.VisionModel
	}
	if overlay.ReasoningModel != "" {
		c.ReasoningModel = overlay.ReasoningModel
	}
	if overlay.EmbeddingModel != "" {
		c.EmbeddingModel = overlay.EmbeddingModel
	}
	if overlay.EmbeddingProvider != "" {
		c.EmbeddingProvider = overlay.EmbeddingProvider
	}
	if overlay.OllamaURL != "" {
		c.OllamaURL = overlay.OllamaURL
	}
	if overlay.Dimensions != 0 {
		c.Dimensions = overlay.Dimensions
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.VisionModel == "" {
		c.VisionModel = "gemini-2.5-flash"
	}
	if c.ReasoningModel == "" {
		c.ReasoningModel = "gemini-2.5-flash"
	}
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = ProviderGenAI
	}
	if c.EmbeddingModel == "" {
		if c.EmbeddingProvider == ProviderOllama {
			c.EmbeddingModel = "nomic-embed-text"
		} else {
			c.EmbeddingModel = "text-embedding-004"
		}
	}
	if c.OllamaURL == "" {
		c.OllamaURL = "http://localhost:11434"
	}
	if c.Dimensions == 0 {
		c.Dimensions = 768
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.VisionModel != "" {
		if v := os.Getenv(env.VisionModel); v != "" {
			c.VisionModel = v
		}
	}
	if env.ReasoningModel != "" {
		if v := os.Getenv(env.ReasoningModel); v != "" {
			c.ReasoningModel = v
		}
	}
	if env.EmbeddingModel != "" {
		if v := os.Getenv(env.EmbeddingModel); v != "" {
			c.EmbeddingModel = v
		}
	}
	if env.EmbeddingProvider != "" {
		if v := os.Getenv(env.EmbeddingProvider); v != "" {
			c.EmbeddingProvider = v
		}
	}
	if env.OllamaURL != "" {
		if v := os.Getenv(env.OllamaURL); v != "" {
			c.OllamaURL = v
		}
	}
	if env.Dimensions != "" {
		if v := os.Getenv(env.Dimensions); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Dimensions = n
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.EmbeddingProvider != ProviderGenAI && c.EmbeddingProvider != ProviderOllama {
		return fmt.Errorf("embedding_provider must be %s or %s: %q", ProviderGenAI, ProviderOllama, c.EmbeddingProvider)
	}
	if c.Dimensions < 1 {
		return fmt.Errorf("dimensions must be positive")
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
