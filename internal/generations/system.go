package generations

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/pkg/pagination"
)

// Image kinds addressable through Image.
const (
	ImageSource = "source"
	ImageResult = "result"
)

// System defines generation history operations.
type System interface {
	Handler() *Handler

	Record(ctx context.Context, cmd RecordCommand) (*Generation, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Generation], error)
	Find(ctx context.Context, id uuid.UUID) (*Generation, error)
	// Image opens the archived source or result image. The caller closes the reader.
	Image(ctx context.Context, id uuid.UUID, kind string) (io.ReadCloser, string, error)
}
