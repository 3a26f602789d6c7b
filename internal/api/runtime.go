package api

import (
	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/infrastructure"
	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/pagination"
)

// Runtime is the infrastructure as the API module sees it: the same
// shared systems, a logger tagged module=api, and the request tuning.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Pipeline   workflow.Options
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Pipeline:       cfg.PipelineOptions(),
	}
}
