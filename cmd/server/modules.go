package main

import (
	"context"
	"net/http"

	"github.com/JaimeStill/floracare/internal/api"
	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/infrastructure"
	"github.com/JaimeStill/floracare/pkg/handlers"
	"github.com/JaimeStill/floracare/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(ctx context.Context, infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}

		failures := make(map[string]string)
		for name, err := range infra.Lifecycle.Failures() {
			failures[name] = err.Error()
		}
		handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not ready",
			"failures": failures,
		})
	})

	return router
}
