package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// Walk is a pagination walker that saves its position after every page.
type Walk[T any] struct {
	backend Backend
	key     Key
	walker  *pagination.Walker[T]
	items   int
}

// Resume returns a walk positioned at the checkpoint stored for key, or at
// the beginning of the collection when there is none.
func Resume[T any](ctx context.Context, backend Backend, key Key, fetch pagination.Fetcher[T]) (*Walk[T], error) {
	cp, err := backend.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNoCheckpoint):
		log.Debug().Str(logging.FieldCheckpoint, key.String()).Msg("No checkpoint, starting walk from the beginning")
		return &Walk[T]{backend: backend, key: key, walker: pagination.NewWalker(fetch, "")}, nil
	case err != nil:
		return nil, fmt.Errorf("load checkpoint %s: %w", key, err)
	}

	log.Debug().
		Str(logging.FieldCheckpoint, key.String()).
		Str(logging.FieldCursor, cp.Cursor).
		Int("pages", cp.Pages).
		Bool("done", cp.Done).
		Dur("age", cp.Age()).
		Msg("Resuming walk from checkpoint")

	return &Walk[T]{
		backend: backend,
		key:     key,
		walker:  pagination.Restore(fetch, cp.State()),
		items:   cp.Items,
	}, nil
}

// Next fetches the next page and saves the new position. A failed fetch
// leaves the stored checkpoint untouched. If the page was fetched but the
// save failed, the page is returned together with the save error.
func (w *Walk[T]) Next(ctx context.Context) (pagination.Page[T], error) {
	page, err := w.walker.Next(ctx)
	if err != nil {
		return page, err
	}

	w.items += len(page.Items)
	if err := w.backend.Save(ctx, w.key, FromState(w.walker.State(), w.items)); err != nil {
		log.Warn().Err(err).Str(logging.FieldCheckpoint, w.key.String()).Msg("Checkpoint save failed")
		return page, fmt.Errorf("save checkpoint %s: %w", w.key, err)
	}

	return page, nil
}

// Reset deletes the stored checkpoint. The walk itself keeps its position.
func (w *Walk[T]) Reset(ctx context.Context) error {
	return w.backend.Delete(ctx, w.key)
}

// Walker returns the underlying walker.
func (w *Walk[T]) Walker() *pagination.Walker[T] {
	return w.walker
}

// Done reports whether the last page has been fetched.
func (w *Walk[T]) Done() bool {
	return w.walker.Done()
}

// Items returns the number of items fetched, including those counted before a resume.
func (w *Walk[T]) Items() int {
	return w.items
}

// Key returns the checkpoint key of the walk.
func (w *Walk[T]) Key() Key {
	return w.key
}
