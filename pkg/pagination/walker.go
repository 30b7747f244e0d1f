package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrWalkDone is returned by Walker.Next once the last page has been fetched.
	ErrWalkDone = errors.New("walk complete: no further pages")

	// ErrStalledCursor is returned when a page claims a successor but hands
	// back the cursor it was requested with.
	ErrStalledCursor = errors.New("page did not advance the cursor")
)

// Fetcher retrieves the page after cursor; "" means the first page.
type Fetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// WalkerState is the resumable position of a walk.
type WalkerState struct {
	Cursor string `json:"cursor"`
	Pages  int    `json:"pages"`
	Done   bool   `json:"done"`
}

// Walker enumerates a collection page by page. It only advances when the
// caller asks for the next page and is owned by a single caller.
type Walker[T any] struct {
	fetch Fetcher[T]
	state WalkerState
}

// NewWalker returns a walker starting after startCursor ("" for the beginning).
func NewWalker[T any](fetch Fetcher[T], startCursor string) *Walker[T] {
	return &Walker[T]{fetch: fetch, state: WalkerState{Cursor: startCursor}}
}

// Restore returns a walker positioned at a previously saved state.
func Restore[T any](fetch Fetcher[T], state WalkerState) *Walker[T] {
	return &Walker[T]{fetch: fetch, state: state}
}

// Next fetches the next page. On error the position is unchanged, so calling
// Next again repeats the same request.
func (w *Walker[T]) Next(ctx context.Context) (Page[T], error) {
	if w.state.Done {
		return Page[T]{}, ErrWalkDone
	}

	page, err := w.fetch(ctx, w.state.Cursor)
	if err != nil {
		return Page[T]{}, err
	}

	next := ""
	if page.PageInfo != nil {
		next = page.PageInfo.NextCursor()
	}
	if page.HasNext() && next != "" && next == w.state.Cursor {
		return Page[T]{}, fmt.Errorf("%w: %q", ErrStalledCursor, next)
	}

	w.state.Pages++

	// A page claiming a successor without a cursor cannot be continued.
	if !page.HasNext() || next == "" {
		w.state.Done = true
		return page, nil
	}

	w.state.Cursor = next
	return page, nil
}

// All yields pages until the walk completes or a fetch fails. The failing
// error is yielded once and iteration stops.
func (w *Walker[T]) All(ctx context.Context) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		for !w.state.Done {
			page, err := w.Next(ctx)
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// Done reports whether the last page has been fetched.
func (w *Walker[T]) Done() bool {
	return w.state.Done
}

// Cursor returns the cursor the next page will be requested after.
func (w *Walker[T]) Cursor() string {
	return w.state.Cursor
}

// Pages returns the number of pages fetched, including any counted before a Restore.
func (w *Walker[T]) Pages() int {
	return w.state.Pages
}

// State returns a snapshot that Restore accepts.
func (w *Walker[T]) State() WalkerState {
	return w.state
}
