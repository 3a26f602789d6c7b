package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/JaimeStill/floracare/internal/config"
	"github.com/JaimeStill/floracare/pkg/lifecycle"
)

type httpServer struct {
	http   *http.Server
	logger *slog.Logger
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			ReadHeaderTimeout: cfg.ReadTimeoutDuration(),
			WriteTimeout:      cfg.WriteTimeoutDuration(),
		},
		logger: logger.With("system", "http"),
	}
}

// Start binds the listen address before returning so port conflicts fail
// startup. Request contexts derive from the coordinator and are cancelled
// when shutdown begins.
func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	s.http.BaseContext = func(net.Listener) context.Context { return lc.Context() }

	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	lc.OnShutdown("http", func(ctx context.Context) error {
		if err := s.http.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	})

	return nil
}
