package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/pkg/weather"
)

// Enrich looks up current weather and resolves the named plant with its
// recent history. The two lookups run concurrently. Weather failures are
// logged and leave Weather nil; plant store failures are returned wrapped
// in ErrEnrichmentFailed.
func Enrich(ctx context.Context, rt *Runtime, a *Analyzed) (*Enriched, error) {
	e := &Enriched{Analyzed: *a, History: []string{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.Weather = lookupWeather(gctx, rt, a.Request.Location)
		return nil
	})

	g.Go(func() error {
		plant, history, err := resolvePlant(gctx, rt, a.Request.PlantName)
		if err != nil {
			return err
		}
		e.Plant = plant
		e.History = history
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnrichmentFailed, err)
	}

	rt.Logger.InfoContext(
		ctx, "enrich stage complete",
		"weather", e.Weather != nil,
		"plant", a.Request.PlantName,
		"history", len(e.History),
	)

	return e, nil
}

func lookupWeather(ctx context.Context, rt *Runtime, location string) *weather.Snapshot {
	if rt.Weather == nil {
		return nil
	}

	location = strings.TrimSpace(location)
	if location == "" {
		location = rt.Options.DefaultLocation
	}

	snap, err := rt.Weather.Current(ctx, location)
	if err != nil {
		rt.Logger.WarnContext(ctx, "weather unavailable", "location", location, "error", err)
		return nil
	}
	return snap
}

// resolvePlant finds or creates the named plant and loads its recent
// history. An empty name skips the store entirely.
func resolvePlant(ctx context.Context, rt *Runtime, name string) (*plants.Plant, []string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, []string{}, nil
	}

	plant, err := rt.History.FindPlantByName(ctx, name)
	if errors.Is(err, plants.ErrNotFound) {
		plant, err = rt.History.CreatePlant(ctx, name, plants.UnknownSpecies)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve plant %q: %w", name, err)
	}

	history, err := rt.History.RecentHistory(ctx, plant.ID, rt.Options.HistoryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load history for %q: %w", name, err)
	}
	if history == nil {
		history = []string{}
	}

	return plant, history, nil
}
