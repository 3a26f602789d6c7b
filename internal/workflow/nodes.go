package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Graph node names in execution order.
const (
	NodeAnalyze    = "analyze"
	NodeEnrich     = "enrich"
	NodeRetrieve   = "retrieve"
	NodeSynthesize = "synthesize"
)

// State keys holding each stage's typed result.
const (
	KeyRequest   = "request"
	KeyAnalyzed  = "analyzed"
	KeyEnriched  = "enriched"
	KeyRetrieved = "retrieved"
	KeyReport    = "report"
)

// AnalyzeNode reads the Request and stores the Analyzed result.
func AnalyzeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extract[Request](s, KeyRequest)
		if err != nil {
			return s, err
		}

		analyzed, err := Analyze(ctx, rt, req)
		if err != nil {
			return s, err
		}
		return s.Set(KeyAnalyzed, analyzed), nil
	})
}

func EnrichNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		analyzed, err := extract[*Analyzed](s, KeyAnalyzed)
		if err != nil {
			return s, err
		}

		enriched, err := Enrich(ctx, rt, analyzed)
		if err != nil {
			return s, err
		}
		return s.Set(KeyEnriched, enriched), nil
	})
}

func RetrieveNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		enriched, err := extract[*Enriched](s, KeyEnriched)
		if err != nil {
			return s, err
		}

		retrieved, err := Retrieve(ctx, rt, enriched)
		if err != nil {
			return s, err
		}
		return s.Set(KeyRetrieved, retrieved), nil
	})
}

// SynthesizeNode stores the final DiagnosisReport. Persistence happens
// after the graph completes so a failed run never writes history.
func SynthesizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		retrieved, err := extract[*Retrieved](s, KeyRetrieved)
		if err != nil {
			return s, err
		}

		report, err := Synthesize(ctx, rt, retrieved)
		if err != nil {
			return s, err
		}
		return s.Set(KeyReport, report), nil
	})
}

func extract[T any](s state.State, key string) (T, error) {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%s is %T, not %T", key, val, zero)
	}
	return v, nil
}
