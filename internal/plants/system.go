package plants

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/pagination"
	"github.com/JaimeStill/floracare/pkg/weather"
)

// System defines the public contract for plant and diagnosis history operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Plant], error)

	FindPlantByName(ctx context.Context, name string) (*Plant, error)

	// CreatePlant inserts the plant if its name is free and returns the
	// stored row either way, so concurrent callers resolve to one plant.
	CreatePlant(ctx context.Context, name, species string) (*Plant, error)
	UpdateSpecies(ctx context.Context, plantID uuid.UUID, species string) error

	RecentHistory(ctx context.Context, plantID uuid.UUID, limit int) ([]string, error)
	AppendLog(ctx context.Context, cmd AppendCommand) (uuid.UUID, error)
	AttachWeather(ctx context.Context, logID uuid.UUID, snapshot *weather.Snapshot) error

	Logs(ctx context.Context, name string, limit int) ([]LogEntry, error)
	DeleteHistory(ctx context.Context, name string) (int64, error)

	// DeleteAll removes every plant with its logs and weather snapshots
	// and returns the number of plants removed.
	DeleteAll(ctx context.Context) (int64, error)
}
