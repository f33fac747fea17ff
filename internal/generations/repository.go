package generations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/proshot/pkg/pagination"
	"github.com/JaimeStill/proshot/pkg/repository"
	"github.com/JaimeStill/proshot/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a database-backed System. store may be nil, in which case
// images are not archived.
func New(db *sql.DB, store storage.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "generations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Generation, error) {
	id := uuid.New()
	srcKey, resKey := r.archive(ctx, id, cmd)

	q := `
		INSERT INTO generations(id, session_ref, mode, background, attire, status, error, duration_ms, source_key, result_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + columns

	args := recordArgs(id, cmd, srcKey, resKey)

	g, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Generation, error) {
		return repository.QueryOne(ctx, tx, q, args, scanGeneration)
	})
	if err != nil {
		r.discard(ctx, srcKey, resKey)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("generation recorded", "id", g.ID, "mode", g.Mode, "status", g.Status)
	return &g, nil
}

// archive uploads the source and result images concurrently. A failed upload
// leaves the corresponding key nil; history is still recorded.
func (r *repo) archive(ctx context.Context, id uuid.UUID, cmd RecordCommand) (*string, *string) {
	if r.storage == nil {
		return nil, nil
	}

	src := cmd.Outcome.Request.Source
	res := cmd.Outcome.Result

	var srcKey, resKey *string
	g, gctx := errgroup.WithContext(ctx)

	if !src.Empty() {
		key := sourceKey(id, src.MIMEType)
		g.Go(func() error {
			if err := r.storage.Put(gctx, key, src.Data, src.MIMEType); err != nil {
				return fmt.Errorf("archive source: %w", err)
			}
			srcKey = &key
			return nil
		})
	}

	if !res.Empty() {
		key := resultKey(id)
		g.Go(func() error {
			if err := r.storage.Put(gctx, key, res.Data, res.MIMEType); err != nil {
				return fmt.Errorf("archive result: %w", err)
			}
			resKey = &key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Warn("generation archive incomplete", "id", id, "error", err)
		r.discard(ctx, srcKey, resKey)
		return nil, nil
	}
	return srcKey, resKey
}

func (r *repo) discard(ctx context.Context, keys ...*string) {
	if r.storage == nil {
		return
	}
	for _, key := range keys {
		if key == nil {
			continue
		}
		if err := r.storage.Delete(ctx, *key); err != nil {
			r.logger.Warn("compensating blob delete failed", "key", *key, "error", err)
		}
	}
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Generation], error) {
	page.Normalize(r.pagination)
	where, args := filters.where()

	total, err := repository.Count(ctx, r.db, "SELECT COUNT(*) FROM generations"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}

	n := len(args)
	q := fmt.Sprintf(
		"SELECT %s FROM generations%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		columns, where, n+1, n+2,
	)
	pageArgs := append(args, page.PageSize, page.Offset())

	items, err := repository.QueryMany(ctx, r.db, q, pageArgs, scanGeneration)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Generation, error) {
	q := "SELECT " + columns + " FROM generations WHERE id = $1"

	g, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanGeneration)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &g, nil
}

func (r *repo) Image(ctx context.Context, id uuid.UUID, kind string) (io.ReadCloser, string, error) {
	g, err := r.Find(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var key *string
	switch kind {
	case ImageSource:
		key = g.SourceKey
	case ImageResult:
		key = g.ResultKey
	default:
		return nil, "", ErrInvalidImage
	}

	if key == nil || r.storage == nil {
		return nil, "", ErrNotArchived
	}

	body, contentType, err := r.storage.Open(ctx, *key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrNotArchived
		}
		return nil, "", err
	}
	return body, contentType, nil
}
