// Package workflow runs the plant diagnosis pipeline: a linear state
// graph that analyzes a photograph, enriches it with weather and plant
// history, retrieves reference knowledge, and synthesizes a report.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/floracare/internal/plants"
)

// Execute runs the four stages in order and returns the final report.
// A stage failure aborts the run and its error is returned unchanged.
// When the request resolved a plant, the outcome is appended to its
// history after synthesis succeeds; write failures are logged and do
// not affect the returned report.
func Execute(ctx context.Context, rt *Runtime, req Request) (*DiagnosisReport, error) {
	scoped := *rt
	scoped.Logger = rt.Logger.With("run_id", uuid.New().String())

	tracker := &run{rt: &scoped}
	ctx = withRun(ctx, tracker)

	graph, err := buildGraph(&scoped)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil).Set(KeyRequest, req)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		tracker.transition(ctx, StateFailed, err)
		return nil, err
	}

	retrieved, err := extract[*Retrieved](final, KeyRetrieved)
	if err != nil {
		tracker.transition(ctx, StateFailed, err)
		return nil, err
	}
	report, err := extract[*DiagnosisReport](final, KeyReport)
	if err != nil {
		tracker.transition(ctx, StateFailed, err)
		return nil, err
	}

	if retrieved.Plant != nil {
		persist(ctx, &scoped, retrieved, report)
	}

	tracker.transition(ctx, StateDone, nil)
	return report, nil
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("floracare-diagnose")
	cfg.Observer = observerName

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{NodeAnalyze, AnalyzeNode(rt)},
		{NodeEnrich, EnrichNode(rt)},
		{NodeRetrieve, RetrieveNode(rt)},
		{NodeSynthesize, SynthesizeNode(rt)},
	}

	for i, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
		if i > 0 {
			if err := graph.AddEdge(nodes[i-1].name, n.name, nil); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.SetEntryPoint(NodeAnalyze); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(NodeSynthesize); err != nil {
		return nil, err
	}

	return graph, nil
}

func persist(ctx context.Context, rt *Runtime, r *Retrieved, report *DiagnosisReport) {
	plant := r.Plant

	visual, err := json.Marshal(report.Analysis)
	if err != nil {
		rt.Logger.ErrorContext(ctx, "encode analysis failed", "plant", plant.Name, "error", err)
		return
	}

	logID, err := rt.History.AppendLog(ctx, plants.AppendCommand{
		PlantID:         plant.ID,
		ImagePath:       r.Request.ImagePath,
		VisualDiagnosis: visual,
		FinalDiagnosis:  report.Diagnosis,
	})
	if err != nil {
		rt.Logger.ErrorContext(ctx, "append diagnosis log failed", "plant", plant.Name, "error", err)
		return
	}

	if r.Weather != nil {
		if err := rt.History.AttachWeather(ctx, logID, r.Weather); err != nil {
			rt.Logger.ErrorContext(ctx, "attach weather failed", "plant", plant.Name, "log_id", logID, "error", err)
		}
	}

	if err := rt.History.UpdateSpecies(ctx, plant.ID, report.Analysis.PlantType); err != nil {
		rt.Logger.ErrorContext(ctx, "update species failed", "plant", plant.Name, "error", err)
	}

	rt.Logger.InfoContext(ctx, "diagnosis persisted", "plant", plant.Name, "log_id", logID)
}
