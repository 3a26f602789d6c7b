package api

import (
	"github.com/JaimeStill/floracare/internal/diagnoses"
	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Diagnoses diagnoses.System
	Knowledge knowledge.System
	Plants    plants.System
	Prompts   prompts.System
}

// NewDomain creates all domain systems from the API runtime. Uploads go
// to blob storage under imagePrefix, or to uploadDir without storage.
func NewDomain(runtime *Runtime, imagePrefix, uploadDir string) *Domain {
	plantsSystem := plants.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	knowledgeSystem := knowledge.New(
		runtime.Database.Connection(),
		runtime.Embedder,
		runtime.Logger,
	)

	pipeline := &workflow.Runtime{
		Vision:    runtime.Models,
		Reasoning: runtime.Models,
		Weather:   runtime.Weather,
		Knowledge: knowledgeSystem,
		History:   plantsSystem,
		Prompts:   promptsSystem,
		Options:   runtime.Pipeline,
		Logger:    runtime.Logger,
	}

	diagnosesSystem := diagnoses.New(
		pipeline,
		runtime.Models,
		runtime.Storage,
		imagePrefix,
		uploadDir,
		runtime.Logger,
	)

	return &Domain{
		Diagnoses: diagnosesSystem,
		Knowledge: knowledgeSystem,
		Plants:    plantsSystem,
		Prompts:   promptsSystem,
	}
}
