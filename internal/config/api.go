package config

import (
	"fmt"

	"github.com/JaimeStill/floracare/pkg/formatting"
	"github.com/JaimeStill/floracare/pkg/middleware"
	"github.com/JaimeStill/floracare/pkg/pagination"
)

const defaultMaxUpload int64 = 20 << 20

var corsEnv = &middleware.CORSEnv{
	Enabled:          "FLORACARE_CORS_ENABLED",
	Origins:          "FLORACARE_CORS_ORIGINS",
	AllowedMethods:   "FLORACARE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "FLORACARE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "FLORACARE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "FLORACARE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "FLORACARE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "FLORACARE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig groups the settings of the HTTP API module. MaxUploadSize
// bounds image and knowledge uploads, e.g. "20MB". UploadDir keeps
// diagnosis images when blob storage is not configured.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	UploadDir     string                `toml:"upload_dir"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes parses MaxUploadSize, falling back to 20MB when
// the value is empty or malformed.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	if size, err := formatting.ParseBytes(c.MaxUploadSize); err == nil && size > 0 {
		return size
	}
	return defaultMaxUpload
}

func (c *APIConfig) Finalize() error {
	fallback(&c.BasePath, "/api")
	fallback(&c.MaxUploadSize, "20MB")
	fallback(&c.UploadDir, "uploads")
	envString(&c.BasePath, "FLORACARE_API_BASE_PATH")
	envString(&c.MaxUploadSize, "FLORACARE_API_MAX_UPLOAD_SIZE")
	envString(&c.UploadDir, "FLORACARE_API_UPLOAD_DIR")

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(o *APIConfig) {
	overlay(&c.BasePath, o.BasePath)
	overlay(&c.MaxUploadSize, o.MaxUploadSize)
	overlay(&c.UploadDir, o.UploadDir)
	c.CORS.Merge(&o.CORS)
	c.Pagination.Merge(&o.Pagination)
}
