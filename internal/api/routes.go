package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	logger *slog.Logger,
) {
	maxUpload := cfg.API.MaxUploadSizeBytes()

	groups := []routes.Group{
		domain.Diagnoses.Handler(maxUpload).Routes(),
		domain.Knowledge.Handler(maxUpload).Routes(),
		domain.Plants.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
	}
	routes.Register(mux, groups...)

	for _, g := range groups {
		logger.Debug("routes registered", "prefix", cfg.API.BasePath+g.Prefix, "patterns", g.Patterns())
	}
}
