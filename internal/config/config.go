package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/floracare/pkg/auth"
	"github.com/JaimeStill/floracare/pkg/database"
	"github.com/JaimeStill/floracare/pkg/models"
	"github.com/JaimeStill/floracare/pkg/storage"
	"github.com/JaimeStill/floracare/pkg/weather"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFloraCareEnv             = "FLORACARE_ENV"
	EnvFloraCareShutdownTimeout = "FLORACARE_SHUTDOWN_TIMEOUT"
	EnvFloraCareVersion         = "FLORACARE_VERSION"
	EnvFloraCareConfigDir       = "FLORACARE_CONFIG_DIR"
)

var databaseEnv = &database.Env{
	Host:            "FLORACARE_DB_HOST",
	Port:            "FLORACARE_DB_PORT",
	Name:            "FLORACARE_DB_NAME",
	User:            "FLORACARE_DB_USER",
	Password:        "FLORACARE_DB_PASSWORD",
	SSLMode:         "FLORACARE_DB_SSL_MODE",
	MaxOpenConns:    "FLORACARE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "FLORACARE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "FLORACARE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "FLORACARE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "FLORACARE_STORAGE_CONTAINER_NAME",
	ConnectionString: "FLORACARE_STORAGE_CONNECTION_STRING",
	ServiceURL:       "FLORACARE_STORAGE_SERVICE_URL",
	ImagePrefix:      "FLORACARE_STORAGE_IMAGE_PREFIX",
}

var modelsEnv = &models.Env{
	APIKey:            "FLORACARE_MODELS_API_KEY",
	VisionModel:       "FLORACARE_MODELS_VISION_MODEL",
	ReasoningModel:    "FLORACARE_MODELS_REASONING_MODEL",
	EmbeddingModel:    "FLORACARE_MODELS_EMBEDDING_MODEL",
	EmbeddingProvider: "FLORACARE_MODELS_EMBEDDING_PROVIDER",
	OllamaURL:         "FLORACARE_MODELS_OLLAMA_URL",
	Dimensions:        "FLORACARE_MODELS_DIMENSIONS",
	Timeout:           "FLORACARE_MODELS_TIMEOUT",
}

var weatherEnv = &weather.Env{
	APIKey:          "FLORACARE_WEATHER_API_KEY",
	BaseURL:         "FLORACARE_WEATHER_BASE_URL",
	Units:           "FLORACARE_WEATHER_UNITS",
	Timeout:         "FLORACARE_WEATHER_TIMEOUT",
	DefaultLocation: "FLORACARE_WEATHER_DEFAULT_LOCATION",
}

var authEnv = &auth.Env{
	Enabled:   "FLORACARE_AUTH_ENABLED",
	IssuerURL: "FLORACARE_AUTH_ISSUER_URL",
	ClientID:  "FLORACARE_AUTH_CLIENT_ID",
}

// Config is the root configuration for the FloraCare service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Models          models.Config   `toml:"models"`
	Weather         weather.Config  `toml:"weather"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	Auth            auth.Config     `toml:"auth"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the FLORACARE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFloraCareEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration bounds how long shutdown hooks may run.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load builds the configuration from config.toml when present, then the
// FLORACARE_ENV overlay, then environment variables. Defaults fill
// anything left unset.
func Load() (*Config, error) {
	cfg := &Config{}

	if base := configPath(BaseConfigFile); fileExists(base) {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		o, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(o *Config) {
	overlay(&c.ShutdownTimeout, o.ShutdownTimeout)
	overlay(&c.Version, o.Version)
	c.Server.Merge(&o.Server)
	c.Database.Merge(&o.Database)
	c.Storage.Merge(&o.Storage)
	c.API.Merge(&o.API)
	c.Models.Merge(&o.Models)
	c.Weather.Merge(&o.Weather)
	c.Pipeline.Merge(&o.Pipeline)
	c.Auth.Merge(&o.Auth)
}

func (c *Config) finalize() error {
	fallback(&c.ShutdownTimeout, "30s")
	fallback(&c.Version, "0.1.0")
	envString(&c.ShutdownTimeout, EnvFloraCareShutdownTimeout)
	envString(&c.Version, EnvFloraCareVersion)

	if err := checkDurations("shutdown_timeout", c.ShutdownTimeout); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"models", func() error { return c.Models.Finalize(modelsEnv) }},
		{"weather", func() error { return c.Weather.Finalize(weatherEnv) }},
		{"pipeline", c.Pipeline.Finalize},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
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

func overlayPath() string {
	env := os.Getenv(EnvFloraCareEnv)
	if env == "" {
		return ""
	}
	if path := configPath(fmt.Sprintf(OverlayConfigPattern, env)); fileExists(path) {
		return path
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func configPath(name string) string {
	if dir := os.Getenv(EnvFloraCareConfigDir); dir != "" {
		return filepath.Join(dir, name)
	}
	return name
}
