package api

import (
	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/internal/infrastructure"
	"github.com/JaimeStill/proshot/pkg/pagination"
)

// Runtime is the API view of the shared infrastructure: the same systems with
// a module-scoped logger, plus list paging limits.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime derives the API runtime from infra.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
	}
}
