// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/infrastructure"
	"github.com/JaimeStill/floracare/pkg/auth"
	"github.com/JaimeStill/floracare/pkg/middleware"
	"github.com/JaimeStill/floracare/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled the issuer is discovered here, so ctx bounds that request.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg.Storage.ImagePrefix, cfg.API.UploadDir)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime.Logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(ctx, &cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		m.Use(auth.Middleware(verifier, runtime.Logger))
	}

	return m, nil
}
