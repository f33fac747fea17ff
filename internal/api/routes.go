package api

import (
	"net/http"

	"github.com/JaimeStill/proshot/pkg/auth"
	"github.com/JaimeStill/proshot/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	options := newOptionsHandler(runtime.Logger)
	groups := []routes.Group{options.routes()}

	// History exposes every session's selfies, so it is only served behind
	// bearer auth.
	if runtime.Auth != nil {
		history := domain.Generations.Handler().Routes()
		history.Middleware = append(history.Middleware, auth.Bearer(runtime.Auth, runtime.Logger))
		groups = append(groups, history)
	} else {
		runtime.Logger.Warn("generation history api not mounted, auth is not configured")
	}

	routes.Register(mux, groups...)
}
