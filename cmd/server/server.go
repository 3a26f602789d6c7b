package main

import (
	"context"
	"time"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/internal/infrastructure"
)

// Server owns the process-wide systems and the HTTP listener.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(ctx, infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info("server initialized", "addr", cfg.Server.Addr(), "version", cfg.Version, "env", cfg.Env())

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers subsystem hooks and begins serving. Readiness is
// reported asynchronously once the startup checks settle.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go s.reportReadiness()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}

func (s *Server) reportReadiness() {
	if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
		s.infra.Logger.Error("startup checks failed", "error", err)
		return
	}
	s.infra.Logger.Info("all subsystems ready")
}
