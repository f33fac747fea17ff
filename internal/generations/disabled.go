package generations

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/pkg/pagination"
)

type disabled struct {
	logger     *slog.Logger
	pagination pagination.Config
}

// Disabled returns a System that records nothing. It backs the service when
// no database is configured.
func Disabled(logger *slog.Logger, pagination pagination.Config) System {
	return &disabled{
		logger:     logger.With("system", "generations"),
		pagination: pagination,
	}
}

func (d *disabled) Handler() *Handler {
	return NewHandler(d, d.logger, d.pagination)
}

func (d *disabled) Record(ctx context.Context, cmd RecordCommand) (*Generation, error) {
	return nil, nil
}

func (d *disabled) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Generation], error) {
	page.Normalize(d.pagination)
	result := pagination.NewPageResult[Generation](nil, 0, page)
	return &result, nil
}

func (d *disabled) Find(ctx context.Context, id uuid.UUID) (*Generation, error) {
	return nil, ErrNotFound
}

func (d *disabled) Image(ctx context.Context, id uuid.UUID, kind string) (io.ReadCloser, string, error) {
	return nil, "", ErrNotFound
}
