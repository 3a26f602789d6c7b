package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/pagination"
)

// System stores instruction overrides. As a Source it resolves the
// active override for a stage, falling back to the built-in text.
type System interface {
	Source
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetActive toggles a prompt. Activating deactivates any other
	// override for the same stage in the same transaction.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Prompt, error)
}
