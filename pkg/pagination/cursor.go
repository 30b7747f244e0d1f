package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Sternrassler/flare-explorer-client/pkg/client"
)

// ErrInvalidCursor is wrapped by the PreconditionError ValidateCursor returns.
var ErrInvalidCursor = errors.New("cursor must not contain quotes, backslashes or control characters")

// ValidateCursor rejects a cursor that could not have been issued by the
// explorer. Cursors are opaque base64 tokens; anything able to close the
// string literal it is sent in is refused before a query is built.
func ValidateCursor(cursor string) error {
	for _, r := range cursor {
		if r == '"' || r == '\\' || unicode.IsControl(r) {
			return &client.PreconditionError{
				What: "cursor",
				Err:  fmt.Errorf("%w: %q", ErrInvalidCursor, cursor),
			}
		}
	}
	return nil
}

// AfterClause returns the connection argument that continues after cursor.
// An empty cursor yields an empty string: the argument is omitted rather
// than sent as after: "".
func AfterClause(cursor string) string {
	if cursor == "" {
		return ""
	}
	return "after: " + literal(cursor)
}

// AfterClauseFor is AfterClause for an optional cursor; nil behaves like "".
func AfterClauseFor(cursor *string) string {
	if cursor == nil {
		return ""
	}
	return AfterClause(*cursor)
}

// FirstClause returns the page size argument, which is always sent.
func FirstClause(pageSize int) string {
	return fmt.Sprintf("first: %d", pageSize)
}

// Args builds a connection argument list from the page size, the cursor and
// any extra scalar arguments, skipping empty parts.
func Args(pageSize int, cursor string, extra ...string) string {
	parts := make([]string, 0, 2+len(extra))
	parts = append(parts, FirstClause(pageSize))

	if after := AfterClause(cursor); after != "" {
		parts = append(parts, after)
	}

	for _, arg := range extra {
		if arg != "" {
			parts = append(parts, arg)
		}
	}

	return strings.Join(parts, " ")
}

// literal renders s as an escaped GraphQL string literal.
func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
