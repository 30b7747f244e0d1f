// Package pagination implements the explorer's cursor pagination protocol.
//
// Collections are GraphQL connections: a page is a list of edges wrapping
// nodes plus a pageInfo block carrying the cursor to continue from. A cursor
// is opaque; it is stored and replayed verbatim as the connection's after
// argument and never parsed.
//
// The protocol is stateless across calls. A caller fetches one page, checks
// HasNextPage and decides whether to ask for the next one:
//
//	page, err := ex.GetTokenTransfers(ctx, contract, "")
//	for err == nil && page.HasNext() {
//		page, err = ex.GetTokenTransfers(ctx, contract, page.PageInfo.NextCursor())
//	}
//
// Walker wraps that loop as a restartable lazy sequence that remembers the
// last cursor, and Collect drains a Walker with a page bound:
//
//	w := pagination.NewWalker(fetch, savedCursor)
//	for page, err := range w.All(ctx) {
//		...
//	}
//
// A walk can be suspended at any page boundary by saving Walker.State and
// resumed later with Restore (see package checkpoint for a Redis store).
package pagination
