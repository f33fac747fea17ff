// Package api assembles the JSON API module: studio options and generation
// history.
package api

import (
	"net/http"

	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/pkg/middleware"
	"github.com/JaimeStill/proshot/pkg/module"
)

// NewModule creates the API module with every domain handler and middleware.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) (*module.Module, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
