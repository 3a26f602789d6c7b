package config

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/floracare/internal/workflow"
)

const (
	EnvPipelineHistoryLimit      = "FLORACARE_PIPELINE_HISTORY_LIMIT"
	EnvPipelineTopK              = "FLORACARE_PIPELINE_TOP_K"
	EnvPipelineOverrideThreshold = "FLORACARE_PIPELINE_OVERRIDE_THRESHOLD"
	EnvPipelineMaxObjects        = "FLORACARE_PIPELINE_MAX_OBJECTS"
)

// PipelineConfig tunes the diagnosis pipeline stages.
type PipelineConfig struct {
	HistoryLimit      int     `toml:"history_limit"`
	TopK              int     `toml:"top_k"`
	OverrideThreshold float64 `toml:"override_threshold"`
	MaxObjects        int     `toml:"max_objects"`
}

func (c *PipelineConfig) Finalize() error {
	fallback(&c.HistoryLimit, 3)
	fallback(&c.TopK, 3)
	fallback(&c.OverrideThreshold, 0.85)
	fallback(&c.MaxObjects, 20)

	envInt(&c.HistoryLimit, EnvPipelineHistoryLimit)
	envInt(&c.TopK, EnvPipelineTopK)
	envFloat(&c.OverrideThreshold, EnvPipelineOverrideThreshold)
	envInt(&c.MaxObjects, EnvPipelineMaxObjects)

	switch {
	case c.HistoryLimit < 1:
		return errors.New("history_limit must be positive")
	case c.TopK < 1:
		return errors.New("top_k must be positive")
	case c.MaxObjects < 1:
		return errors.New("max_objects must be positive")
	case c.OverrideThreshold <= 0 || c.OverrideThreshold > 1:
		return fmt.Errorf("override_threshold must be in (0, 1]: %v", c.OverrideThreshold)
	}
	return nil
}

func (c *PipelineConfig) Merge(o *PipelineConfig) {
	overlay(&c.HistoryLimit, o.HistoryLimit)
	overlay(&c.TopK, o.TopK)
	overlay(&c.OverrideThreshold, o.OverrideThreshold)
	overlay(&c.MaxObjects, o.MaxObjects)
}

// PipelineOptions returns the workflow tuning for this configuration.
// The default location comes from the weather settings.
func (c *Config) PipelineOptions() workflow.Options {
	return workflow.Options{
		HistoryLimit:      c.Pipeline.HistoryLimit,
		TopK:              c.Pipeline.TopK,
		OverrideThreshold: c.Pipeline.OverrideThreshold,
		MaxObjects:        c.Pipeline.MaxObjects,
		DefaultLocation:   c.Weather.DefaultLocation,
	}
}
