package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/floracare/internal/knowledge"
)

// RetrievalQuery builds the similarity search text for an analysis:
// "<plant_type> with <symptom, symptom, ...>".
func RetrievalQuery(a *ImageAnalysis) string {
	return fmt.Sprintf("%s with %s", a.PlantType, strings.Join(a.VisualSymptoms, ", "))
}

// Retrieve fetches up to TopK knowledge chunks relevant to the analysis.
// An empty result is valid; store failures are wrapped in ErrRetrievalFailed.
func Retrieve(ctx context.Context, rt *Runtime, e *Enriched) (*Retrieved, error) {
	query := RetrievalQuery(e.Analysis)

	chunks, err := rt.Knowledge.SimilaritySearch(ctx, query, rt.Options.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	if len(chunks) > rt.Options.TopK {
		chunks = chunks[:rt.Options.TopK]
	}

	out := make([]knowledge.Chunk, len(chunks))
	for i, c := range chunks {
		if c.Source == "" {
			c.Source = knowledge.UnknownSource
		}
		out[i] = c
	}

	rt.Logger.InfoContext(ctx, "retrieve stage complete", "query", query, "chunks", len(out))

	return &Retrieved{Enriched: *e, Knowledge: out}, nil
}
