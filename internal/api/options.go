package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/handlers"
	"github.com/JaimeStill/proshot/pkg/routes"
)

// Options lists the modes and customization choices a client may submit.
type Options struct {
	Modes       []studio.ModeInfo `json:"modes"`
	Backgrounds []studio.Choice   `json:"backgrounds"`
	Attires     []studio.Choice   `json:"attires"`
	Defaults    studio.Options    `json:"defaults"`
}

type optionsHandler struct {
	logger *slog.Logger
}

func newOptionsHandler(logger *slog.Logger) *optionsHandler {
	return &optionsHandler{logger: logger.With("handler", "options")}
}

func (h *optionsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/options",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.get},
		},
	}
}

func (h *optionsHandler) get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Options{
		Modes:       studio.Modes(),
		Backgrounds: studio.Backgrounds,
		Attires:     studio.Attires,
		Defaults:    studio.DefaultOptions(),
	})
}
