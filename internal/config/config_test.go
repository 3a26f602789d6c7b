package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/floracare/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "5m"

[database]
host = "localhost"
port = 5432
name = "floracare"
user = "floracare"
password = "floracare"
ssl_mode = "disable"

[storage]
container_name = "plant-images"
connection_string = "UseDevelopmentStorage=true"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[models]
vision_model = "gemini-2.5-flash"
embedding_provider = "ollama"

[weather]
default_location = "London,UK"

[pipeline]
history_limit = 3
top_k = 3
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[pipeline]
top_k = 5
`

const minimalConfig = `
[database]
name = "floracare"
user = "floracare"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func configDir(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeConfig(t, dir, name, content)
	}
	t.Setenv(config.EnvFloraCareConfigDir, dir)
}

func TestLoad(t *testing.T) {
	configDir(t, map[string]string{"config.toml": baseConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.ContainerName != "plant-images" {
		t.Errorf("storage container: got %s, want plant-images", cfg.Storage.ContainerName)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.Models.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("embedding model: got %s, want nomic-embed-text", cfg.Models.EmbeddingModel)
	}
	if cfg.Weather.DefaultLocation != "London,UK" {
		t.Errorf("weather default_location: got %s, want London,UK", cfg.Weather.DefaultLocation)
	}
	if cfg.Pipeline.OverrideThreshold != 0.85 {
		t.Errorf("pipeline override_threshold: got %v, want 0.85", cfg.Pipeline.OverrideThreshold)
	}
	if cfg.Pipeline.MaxObjects != 20 {
		t.Errorf("pipeline max_objects: got %d, want 20", cfg.Pipeline.MaxObjects)
	}

	opts := cfg.PipelineOptions()
	if opts.DefaultLocation != "London,UK" || opts.TopK != cfg.Pipeline.TopK {
		t.Errorf("pipeline options: got %+v", opts)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	configDir(t, map[string]string{
		"config.toml":         baseConfig,
		"config.staging.toml": overlayConfig,
	})
	t.Setenv("FLORACARE_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Pipeline.TopK != 5 {
		t.Errorf("pipeline top_k: got %d, want 5 (from overlay)", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.HistoryLimit != 3 {
		t.Errorf("pipeline history_limit: got %d, want 3 (from base)", cfg.Pipeline.HistoryLimit)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	configDir(t, map[string]string{"config.toml": baseConfig})

	t.Setenv("FLORACARE_VERSION", "2.0.0")
	t.Setenv("FLORACARE_SERVER_PORT", "3000")
	t.Setenv("FLORACARE_WEATHER_API_KEY", "owm-key")
	t.Setenv("FLORACARE_MODELS_API_KEY", "gemini-key")
	t.Setenv("FLORACARE_PIPELINE_OVERRIDE_THRESHOLD", "0.9")
	t.Setenv("FLORACARE_API_UPLOAD_DIR", "/var/lib/floracare/uploads")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Weather.APIKey != "owm-key" {
		t.Errorf("weather api key: got %q, want owm-key", cfg.Weather.APIKey)
	}
	if cfg.Models.APIKey != "gemini-key" {
		t.Errorf("models api key: got %q, want gemini-key", cfg.Models.APIKey)
	}
	if cfg.Pipeline.OverrideThreshold != 0.9 {
		t.Errorf("override threshold: got %v, want 0.9", cfg.Pipeline.OverrideThreshold)
	}
	if cfg.API.UploadDir != "/var/lib/floracare/uploads" {
		t.Errorf("upload_dir: got %q", cfg.API.UploadDir)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	configDir(t, nil)

	t.Setenv("FLORACARE_DB_NAME", "testdb")
	t.Setenv("FLORACARE_DB_USER", "testuser")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled without connection settings")
	}
	if cfg.Auth.Enabled {
		t.Error("auth should be disabled by default")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	configDir(t, map[string]string{"config.toml": `[server`})

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	configDir(t, map[string]string{"config.toml": minimalConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv("FLORACARE_ENV", "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDefaults(t *testing.T) {
	configDir(t, map[string]string{"config.toml": minimalConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default_page_size: got %d, want 20", cfg.API.Pagination.DefaultPageSize)
	}
	if got, want := cfg.API.MaxUploadSizeBytes(), int64(20*1024*1024); got != want {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, want)
	}
	if cfg.API.UploadDir != "uploads" {
		t.Errorf("upload_dir: got %q, want uploads", cfg.API.UploadDir)
	}
	if cfg.Models.TimeoutDuration() != 60*time.Second {
		t.Errorf("models timeout: got %v, want 60s", cfg.Models.TimeoutDuration())
	}
	if cfg.Weather.TimeoutDuration() != 5*time.Second {
		t.Errorf("weather timeout: got %v, want 5s", cfg.Weather.TimeoutDuration())
	}
	if cfg.Pipeline.HistoryLimit != 3 || cfg.Pipeline.TopK != 3 {
		t.Errorf("pipeline: got history_limit=%d top_k=%d, want 3/3", cfg.Pipeline.HistoryLimit, cfg.Pipeline.TopK)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 20MB", "bad", 20 * 1024 * 1024},
		{"empty falls back to 20MB", "", 20 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "invalid port",
			config:  minimalConfig + "\n[server]\nport = 99999\n",
			wantErr: "invalid port",
		},
		{
			name:    "invalid read_timeout",
			config:  minimalConfig + "\n[server]\nread_timeout = \"bad\"\n",
			wantErr: "invalid read_timeout",
		},
		{
			name:    "missing db name",
			config:  "[database]\nuser = \"floracare\"\n",
			wantErr: "name required",
		},
		{
			name:    "threshold out of range",
			config:  minimalConfig + "\n[pipeline]\noverride_threshold = 1.5\n",
			wantErr: "override_threshold",
		},
		{
			name:    "unknown embedding provider",
			config:  minimalConfig + "\n[models]\nembedding_provider = \"bert\"\n",
			wantErr: "embedding_provider",
		},
		{
			name:    "auth enabled without issuer",
			config:  minimalConfig + "\n[auth]\nenabled = true\n",
			wantErr: "issuer_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configDir(t, map[string]string{"config.toml": tt.config})

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
