package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/pkg/weather"
)

// VisionModel extracts structured text from an image.
type VisionModel interface {
	Vision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// ReasoningModel answers a text prompt with JSON.
type ReasoningModel interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// WeatherProvider reports current conditions for a free-text location.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (*weather.Snapshot, error)
}

// KnowledgeStore retrieves reference chunks by semantic similarity.
type KnowledgeStore interface {
	SimilaritySearch(ctx context.Context, text string, k int) ([]knowledge.Chunk, error)
}

// HistoryStore persists plants and their diagnosis logs.
type HistoryStore interface {
	FindPlantByName(ctx context.Context, name string) (*plants.Plant, error)
	CreatePlant(ctx context.Context, name, species string) (*plants.Plant, error)
	RecentHistory(ctx context.Context, plantID uuid.UUID, limit int) ([]string, error)
	AppendLog(ctx context.Context, cmd plants.AppendCommand) (uuid.UUID, error)
	AttachWeather(ctx context.Context, logID uuid.UUID, snapshot *weather.Snapshot) error
	UpdateSpecies(ctx context.Context, plantID uuid.UUID, species string) error
}

// ImageLoader reads image bytes by path or blob key.
type ImageLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Observer receives every state transition of a run.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) { f(ctx, t) }

// Options tunes pipeline behavior.
type Options struct {
	HistoryLimit      int
	TopK              int
	OverrideThreshold float64
	MaxObjects        int
	DefaultLocation   string
}

// DefaultOptions returns the standard pipeline tuning.
func DefaultOptions() Options {
	return Options{
		HistoryLimit:      3,
		TopK:              3,
		OverrideThreshold: 0.85,
		MaxObjects:        20,
		DefaultLocation:   "London,UK",
	}
}

// Runtime bundles the collaborators that pipeline stages require.
// It is constructed once by composition code and shared across runs.
// Weather and Observer are optional.
type Runtime struct {
	Vision    VisionModel
	Reasoning ReasoningModel
	Weather   WeatherProvider
	Knowledge KnowledgeStore
	History   HistoryStore
	Images    ImageLoader
	Prompts   prompts.Source
	Observer  Observer
	Options   Options
	Logger    *slog.Logger
}
