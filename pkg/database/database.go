// Package database owns the PostgreSQL connection pool used by every
// repository.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/floracare/pkg/lifecycle"
)

// System manages database connections and lifecycle coordination.
type System interface {
	// Connection returns the underlying pool. Opening is lazy, so the
	// pool is usable before Start has verified the server.
	Connection() *sql.DB
	// Start registers the connectivity check and pool close with lc.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
}

// New opens a pgx-backed pool configured from cfg.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("database", d.verify)

	lc.OnShutdown("database", func(context.Context) error {
		if err := d.conn.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		d.logger.Info("database connection closed")
		return nil
	})

	return nil
}

// verify pings the server and confirms the vector extension that the
// knowledge store depends on is installed.
func (d *database) verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		d.logger.Error("database ping failed", "error", err)
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	var version string
	err := d.conn.QueryRowContext(ctx,
		"SELECT extversion FROM pg_extension WHERE extname = 'vector'",
	).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		d.logger.Error("pgvector extension missing, run migrations")
		return ErrVectorMissing
	case err != nil:
		return fmt.Errorf("check vector extension: %w", err)
	}

	d.logger.Info("database connection established", "pgvector", version)
	return nil
}
