package api

import (
	"github.com/JaimeStill/proshot/internal/generations"
)

// Domain holds the domain systems exposed by the API.
type Domain struct {
	Generations generations.System
}

// NewDomain creates the domain systems from the API runtime. Without a
// database, generation history is served by a no-op system.
func NewDomain(runtime *Runtime) *Domain {
	if runtime.Database == nil {
		return &Domain{
			Generations: generations.Disabled(runtime.Logger, runtime.Pagination),
		}
	}

	return &Domain{
		Generations: generations.New(
			runtime.Database.Connection(),
			runtime.Storage,
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
