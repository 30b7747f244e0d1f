package pagination

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/flare-explorer-client/pkg/client"
)

var (
	// ErrParentNotFound is returned by DecodePage when an entity enclosing the
	// connection is absent or null, e.g. the transaction whose internal
	// transactions were requested does not exist.
	ErrParentNotFound = errors.New("parent entity not found")

	// ErrMalformedPage is returned when the connection cannot be decoded.
	ErrMalformedPage = errors.New("malformed page")
)

// PageInfo describes one page boundary. It is never mutated after decoding.
type PageInfo struct {
	EndCursor       *string `json:"endCursor"`
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
}

// NextCursor returns the cursor to continue from, or "" when there is none.
func (p PageInfo) NextCursor() string {
	if p.EndCursor == nil {
		return ""
	}
	return *p.EndCursor
}

// Page is one bounded batch of collection items in server order.
// PageInfo is nil when the explorer returned no page information.
type Page[T any] struct {
	Items    []T       `json:"items"`
	PageInfo *PageInfo `json:"pageInfo"`
}

// HasNext reports whether the explorer announced a further page.
func (p Page[T]) HasNext() bool {
	return p.PageInfo != nil && p.PageInfo.HasNextPage
}

// Edge wraps a single node of a connection.
type Edge[T any] struct {
	Node T `json:"node"`
}

// Connection is the wire form of a paginated collection.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo *PageInfo `json:"pageInfo"`
}

// Page converts the connection to a Page, keeping edge order.
func (c Connection[T]) Page() Page[T] {
	items := make([]T, 0, len(c.Edges))
	for _, edge := range c.Edges {
		items = append(items, edge.Node)
	}
	return Page[T]{Items: items, PageInfo: c.PageInfo}
}

// DecodePage extracts the connection found at path inside data.
//
// Every element of path but the last names an enclosing entity; if one of
// them is absent or null the result is ErrParentNotFound. The last element
// names the connection itself; if it is absent or null the result is an
// empty page with no PageInfo.
func DecodePage[T any](data client.Data, path ...string) (Page[T], error) {
	if len(path) == 0 {
		return Page[T]{}, fmt.Errorf("%w: empty path", ErrMalformedPage)
	}

	fields := map[string]json.RawMessage(data)
	for i, key := range path[:len(path)-1] {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return Page[T]{}, fmt.Errorf("%w: %s", ErrParentNotFound, strings.Join(path[:i+1], "."))
		}

		fields = nil
		if err := json.Unmarshal(raw, &fields); err != nil {
			return Page[T]{}, fmt.Errorf("%w: %s: %w", ErrMalformedPage, strings.Join(path[:i+1], "."), err)
		}
	}

	raw, ok := fields[path[len(path)-1]]
	if !ok || isNull(raw) {
		return Page[T]{Items: []T{}}, nil
	}

	var conn Connection[T]
	if err := json.Unmarshal(raw, &conn); err != nil {
		return Page[T]{}, fmt.Errorf("%w: %s: %w", ErrMalformedPage, strings.Join(path, "."), err)
	}

	return conn.Page(), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
