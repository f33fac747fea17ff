// Package app serves the browser workflow: mode selection, upload,
// processing, result review, and download.
package app

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/internal/infrastructure"
	"github.com/JaimeStill/proshot/internal/sessions"
	"github.com/JaimeStill/proshot/pkg/middleware"
	"github.com/JaimeStill/proshot/pkg/module"
	"github.com/JaimeStill/proshot/pkg/ratelimit"
	"github.com/JaimeStill/proshot/pkg/routes"
	"github.com/JaimeStill/proshot/web/ui"
)

// Runtime extends Infrastructure with the studio systems the UI drives.
type Runtime struct {
	*infrastructure.Infrastructure
	Sessions *sessions.Registry
	Decoder  Decoder
	Limiter  *ratelimit.Limiter
}

// NewModule creates the UI module mounted at cfg.API.AppPath.
func NewModule(cfg *config.Config, rt *Runtime) (*module.Module, error) {
	logger := rt.Logger.With("module", "app")

	views, err := ui.Templates(cfg.API.AppPath, funcs)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	h := NewHandler(rt.Sessions, rt.Decoder, rt.Limiter, views, logger, cfg.API.MaxUploadSizeBytes())

	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	m := module.New(cfg.API.AppPath, mux)
	m.Use(middleware.Recover(logger), middleware.Logger(logger))

	return m, nil
}
