package plants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/pagination"
	"github.com/JaimeStill/floracare/pkg/query"
	"github.com/JaimeStill/floracare/pkg/repository"
	"github.com/JaimeStill/floracare/pkg/weather"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a plant repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "plants"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Plant], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Species")
	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanPlant)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return result, nil
}

func (r *repo) FindPlantByName(ctx context.Context, name string) (*Plant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	q, args := query.NewBuilder(projection).BuildSingle("Name", name)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPlant)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) CreatePlant(ctx context.Context, name, species string) (*Plant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if species == "" {
		species = UnknownSpecies
	}

	res, err := r.db.ExecContext(
		ctx,
		"INSERT INTO plants(name, species) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
		name, species,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plant: %w", err)
	}

	p, err := r.FindPlantByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.InfoContext(ctx, "plant created", "id", p.ID, "name", p.Name)
	}
	return p, nil
}

func (r *repo) UpdateSpecies(ctx context.Context, plantID uuid.UUID, species string) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE plants SET species = $1 WHERE id = $2",
		species, plantID,
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) RecentHistory(ctx context.Context, plantID uuid.UUID, limit int) ([]string, error) {
	q := `
		SELECT created_at, final_diagnosis
		FROM public.diagnosis_logs
		WHERE plant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	history, err := repository.QueryMany(ctx, r.db, q, []any{plantID, limit}, func(s repository.Scanner) (string, error) {
		var e LogEntry
		if err := s.Scan(&e.Timestamp, &e.FinalDiagnosis); err != nil {
			return "", err
		}
		return e.Summary(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return history, nil
}

func (r *repo) AppendLog(ctx context.Context, cmd AppendCommand) (uuid.UUID, error) {
	q := `
		INSERT INTO diagnosis_logs(plant_id, image_path, visual_diagnosis, final_diagnosis)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRowContext(
		ctx, q,
		cmd.PlantID, cmd.ImagePath, []byte(cmd.VisualDiagnosis), cmd.FinalDiagnosis,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert diagnosis log: %w", err)
	}

	r.logger.InfoContext(ctx, "diagnosis logged", "id", id, "plant_id", cmd.PlantID)
	return id, nil
}

func (r *repo) AttachWeather(ctx context.Context, logID uuid.UUID, s *weather.Snapshot) error {
	if s == nil {
		return nil
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO weather_snapshots(log_id, temperature, humidity, condition, location)
		 VALUES ($1, $2, $3, $4, $5)`,
		logID, s.Temperature, s.Humidity, s.Condition, s.Location,
	)
	if err != nil {
		return fmt.Errorf("insert weather snapshot: %w", err)
	}
	return nil
}

func (r *repo) Logs(ctx context.Context, name string, limit int) ([]LogEntry, error) {
	p, err := r.FindPlantByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return []LogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(logProjection, logSort).
		WhereEquals("PlantID", p.ID).
		BuildPage(1, max(limit, 1))

	entries, err := repository.QueryMany(ctx, r.db, q, args, scanLogEntry)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	return entries, nil
}

func (r *repo) DeleteHistory(ctx context.Context, name string) (int64, error) {
	p, err := r.FindPlantByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	deleted, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		_, err := tx.ExecContext(
			ctx,
			`DELETE FROM weather_snapshots
			 WHERE log_id IN (SELECT id FROM diagnosis_logs WHERE plant_id = $1)`,
			p.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("delete weather snapshots: %w", err)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM diagnosis_logs WHERE plant_id = $1", p.ID)
		if err != nil {
			return 0, fmt.Errorf("delete diagnosis logs: %w", err)
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "plant history deleted", "plant", p.Name, "entries", deleted)
	return deleted, nil
}

func (r *repo) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		for _, table := range []string{"weather_snapshots", "diagnosis_logs"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return 0, fmt.Errorf("delete %s: %w", table, err)
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM plants")
		if err != nil {
			return 0, fmt.Errorf("delete plants: %w", err)
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}

	r.logger.WarnContext(ctx, "all plants deleted", "plants", deleted)
	return deleted, nil
}
