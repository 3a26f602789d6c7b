package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/infrastructure"
	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/database"
	"github.com/JaimeStill/floracare/pkg/imaging"
)

// session is the set of systems a command works with. Commands that only
// read history open the database without model clients.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sql.DB
	infra     *infrastructure.Infrastructure
	plants    plants.System
	prompts   prompts.System
	knowledge knowledge.System
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func openDatabase() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	conn := db.Connection()

	return &session{
		cfg:     cfg,
		logger:  logger,
		db:      conn,
		plants:  plants.New(conn, logger, cfg.API.Pagination),
		prompts: prompts.New(conn, logger, cfg.API.Pagination),
	}, nil
}

func openModels(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn := infra.Database.Connection()

	return &session{
		cfg:       cfg,
		logger:    infra.Logger,
		db:        conn,
		infra:     infra,
		plants:    plants.New(conn, infra.Logger, cfg.API.Pagination),
		prompts:   prompts.New(conn, infra.Logger, cfg.API.Pagination),
		knowledge: knowledge.New(conn, infra.Embedder, infra.Logger),
	}, nil
}

// pipeline reads images from the local filesystem.
func (s *session) pipeline() *workflow.Runtime {
	return &workflow.Runtime{
		Vision:    s.infra.Models,
		Reasoning: s.infra.Models,
		Weather:   s.infra.Weather,
		Knowledge: s.knowledge,
		History:   s.plants,
		Images:    imaging.FileLoader{},
		Prompts:   s.prompts,
		Options:   s.cfg.PipelineOptions(),
		Logger:    s.logger,
	}
}
