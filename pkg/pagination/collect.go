package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
)

// Config holds the bounds for Collect.
type Config struct {
	// MaxPages stops the walk after this many pages (0 means no bound).
	MaxPages int
	// Timeout per page fetch
	Timeout time.Duration
	// ProgressEvery logs progress every N pages
	ProgressEvery int
}

// DefaultConfig returns a conservative configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages:      100,
		Timeout:       15 * time.Second,
		ProgressEvery: 10,
	}
}

// Collect drains w sequentially and returns the items of every page fetched,
// in order. It stops when the walk completes or MaxPages pages have been
// fetched by this call; w.Done reports which one happened.
//
// On a fetch failure the items collected so far are returned together with
// the error, and w stays positioned at the failed page.
func Collect[T any](ctx context.Context, w *Walker[T], config Config) ([]T, error) {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 10
	}

	start := time.Now()
	startCursor := w.Cursor()

	var items []T
	fetched := 0

	for !w.Done() {
		if config.MaxPages > 0 && fetched >= config.MaxPages {
			log.Info().
				Int("pages", fetched).
				Str(logging.FieldCursor, w.Cursor()).
				Msg("Page limit reached, walk suspended")
			break
		}

		pageCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		page, err := w.Next(pageCtx)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("fetched_pages", fetched).
				Str(logging.FieldCursor, w.Cursor()).
				Msg("Page fetch failed - returning partial results")
			return items, fmt.Errorf("fetch page %d (partial data: %d items): %w", fetched+1, len(items), err)
		}

		items = append(items, page.Items...)
		fetched++

		if fetched%config.ProgressEvery == 0 {
			log.Info().
				Int("fetched", fetched).
				Int("items", len(items)).
				Msg("Walk progress")
		}
	}

	log.Debug().
		Str("start_cursor", startCursor).
		Int("pages", fetched).
		Int("items", len(items)).
		Bool("done", w.Done()).
		Dur("duration", time.Since(start)).
		Msg("Collect complete")

	return items, nil
}
