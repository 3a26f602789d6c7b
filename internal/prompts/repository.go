package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/pagination"
	"github.com/JaimeStill/floracare/pkg/query"
	"github.com/JaimeStill/floracare/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed prompt System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Name", "Description")
	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return r.find(ctx, r.db, id)
}

func (r *repo) find(ctx context.Context, q repository.Querier, id uuid.UUID) (*Prompt, error) {
	stmt, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, q, stmt, args, scanPrompt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

// Instructions returns the active override for stage, or the built-in
// instructions when none is active.
func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	if _, err := ParseStage(string(stage)); err != nil {
		return "", err
	}

	q, args := query.
		NewBuilder(projection).
		WhereEquals("Stage", stage).
		WhereEquals("Active", true).
		BuildLimit(1)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrompt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return DefaultInstructions(stage)
	case err != nil:
		return "", fmt.Errorf("query active %s prompt: %w", stage, err)
	}
	return p.Instructions, nil
}

func (r *repo) Spec(_ context.Context, stage Stage) (string, error) {
	return DefaultSpec(stage)
}

func (r *repo) Create(ctx context.Context, cmd Command) (*Prompt, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	p, err := repository.QueryOne(ctx, r.db,
		"INSERT INTO prompts(name, stage, instructions, description) VALUES ($1, $2, $3, $4) "+returning,
		[]any{cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description},
		scanPrompt,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt created", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

// Update rewrites a prompt. Moving an active prompt to another stage
// deactivates it so the target stage keeps at most one override.
func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	p, err := repository.QueryOne(ctx, r.db,
		`UPDATE prompts
		SET name = $1, stage = $2, instructions = $3, description = $4,
			active = active AND stage = $2
		WHERE id = $5 `+returning,
		[]any{cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description, id},
		scanPrompt,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt updated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM prompts WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "prompt deleted", "id", id)
	return nil
}

func (r *repo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Prompt, error) {
		target, err := r.find(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		if active {
			if _, err := tx.ExecContext(ctx,
				"UPDATE prompts SET active = false WHERE stage = $1 AND active AND id <> $2",
				target.Stage, id,
			); err != nil {
				return nil, fmt.Errorf("deactivate %s overrides: %w", target.Stage, err)
			}
		}

		updated, err := repository.QueryOne(ctx, tx,
			"UPDATE prompts SET active = $1 WHERE id = $2 "+returning,
			[]any{active, id},
			scanPrompt,
		)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		return &updated, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "prompt activation changed", "id", p.ID, "stage", p.Stage, "active", p.Active)
	return p, nil
}
