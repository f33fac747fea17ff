package main

import (
	"time"

	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/internal/infrastructure"
)

// Server composes infrastructure, the UI and API modules, and the HTTP
// listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"proshot initialized",
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
		"version", cfg.Version,
		"model", cfg.Gemini.Model,
		"history", infra.Database != nil,
		"archive", infra.Storage != nil,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers every subsystem with the lifecycle, then begins serving.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	s.modules.Start(s.infra)

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle context and waits up to timeout for the
// shutdown hooks to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "sessions", s.modules.sessions.Len())
	return s.infra.Lifecycle.Shutdown(timeout)
}
