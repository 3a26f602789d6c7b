// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, model clients)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/pkg/database"
	"github.com/JaimeStill/floracare/pkg/lifecycle"
	"github.com/JaimeStill/floracare/pkg/models"
	"github.com/JaimeStill/floracare/pkg/storage"
	"github.com/JaimeStill/floracare/pkg/weather"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no blob account is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Models    *models.Client
	Embedder  models.Embedder
	Weather   *weather.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	var store storage.System
	if cfg.Storage.Enabled() {
		store, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	} else {
		logger.Warn("blob storage not configured, uploads will be staged locally")
	}

	client, err := models.New(ctx, &cfg.Models, logger)
	if err != nil {
		return nil, fmt.Errorf("models init failed: %w", err)
	}

	embedder, err := models.NewEmbedder(&cfg.Models, client)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Models:    client,
		Embedder:  embedder,
		Weather:   weather.New(&cfg.Weather, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
