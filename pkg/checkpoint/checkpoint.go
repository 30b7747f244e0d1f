// Package checkpoint persists the position of pagination walks in Redis so a
// walk can be resumed from its last cursor by another process.
package checkpoint

import (
	"time"

	"github.com/Sternrassler/flare-explorer-client/pkg/pagination"
)

// Checkpoint is the saved position of a walk.
type Checkpoint struct {
	// Cursor is the end cursor of the last page fetched ("" before the first page)
	Cursor string `json:"cursor"`

	// Pages is the number of pages fetched so far
	Pages int `json:"pages"`

	// Items is the number of items fetched so far
	Items int `json:"items"`

	// Done is set once the last page has been fetched
	Done bool `json:"done"`

	// UpdatedAt is when the checkpoint was last saved
	UpdatedAt time.Time `json:"updated_at"`
}

// FromState builds a checkpoint for a walker state and running item count.
func FromState(state pagination.WalkerState, items int) *Checkpoint {
	return &Checkpoint{
		Cursor:    state.Cursor,
		Pages:     state.Pages,
		Items:     items,
		Done:      state.Done,
		UpdatedAt: time.Now(),
	}
}

// State returns the walker state the checkpoint was taken from.
func (c *Checkpoint) State() pagination.WalkerState {
	return pagination.WalkerState{
		Cursor: c.Cursor,
		Pages:  c.Pages,
		Done:   c.Done,
	}
}

// Age returns the time since the checkpoint was saved.
func (c *Checkpoint) Age() time.Duration {
	return time.Since(c.UpdatedAt)
}
