package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// scriptedFetcher serves pages in order and records the cursors it was asked for.
type scriptedFetcher struct {
	pages   []Page[int]
	fail    map[int]error
	cursors []string
}

func (f *scriptedFetcher) fetch(_ context.Context, cursor string) (Page[int], error) {
	call := len(f.cursors)
	f.cursors = append(f.cursors, cursor)
	if err, ok := f.fail[call]; ok {
		return Page[int]{}, err
	}
	if call >= len(f.pages) {
		return Page[int]{}, errors.New("no more scripted pages")
	}
	return f.pages[call], nil
}

func twoPages() []Page[int] {
	return []Page[int]{
		{Items: []int{1, 2}, PageInfo: &PageInfo{EndCursor: strPtr("X"), HasNextPage: true}},
		{Items: []int{3}, PageInfo: &PageInfo{EndCursor: strPtr("Y"), HasNextPage: false}},
	}
}

func TestWalker_FirstRequestOmitsCursor(t *testing.T) {
	f := &scriptedFetcher{pages: twoPages()}
	w := NewWalker(f.fetch, "")

	page, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, page.Items)
	assert.Equal(t, "X", w.Cursor())
	assert.False(t, w.Done())

	page, err = w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3}, page.Items)
	assert.True(t, w.Done())

	assert.Equal(t, []string{"", "X"}, f.cursors)
	assert.Equal(t, 2, w.Pages())
}

func TestWalker_NextAfterDone(t *testing.T) {
	f := &scriptedFetcher{pages: twoPages()[1:]}
	w := NewWalker(f.fetch, "")

	_, err := w.Next(context.Background())
	require.NoError(t, err)

	_, err = w.Next(context.Background())
	assert.ErrorIs(t, err, ErrWalkDone)
	assert.Len(t, f.cursors, 1, "no request after the walk completed")
}

func TestWalker_StopsWithoutPageInfoOrCursor(t *testing.T) {
	tests := []struct {
		name string
		page Page[int]
	}{
		{name: "no page info", page: Page[int]{Items: []int{}}},
		{name: "next page without cursor", page: Page[int]{Items: []int{1}, PageInfo: &PageInfo{HasNextPage: true}}},
		{name: "next page with empty cursor", page: Page[int]{Items: []int{1}, PageInfo: &PageInfo{EndCursor: strPtr(""), HasNextPage: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &scriptedFetcher{pages: []Page[int]{tt.page}}
			w := NewWalker(f.fetch, "")

			_, err := w.Next(context.Background())
			require.NoError(t, err)
			assert.True(t, w.Done())
		})
	}
}

func TestWalker_ErrorKeepsPosition(t *testing.T) {
	boom := errors.New("boom")
	f := &scriptedFetcher{
		pages: []Page[int]{twoPages()[0], {}, twoPages()[1]},
		fail:  map[int]error{1: boom},
	}
	w := NewWalker(f.fetch, "")

	_, err := w.Next(context.Background())
	require.NoError(t, err)

	_, err = w.Next(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "X", w.Cursor())
	assert.Equal(t, 1, w.Pages())

	_, err = w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "X", "X"}, f.cursors)
}

func TestWalker_StartCursorAndRestore(t *testing.T) {
	f := &scriptedFetcher{pages: twoPages()[1:]}
	w := NewWalker(f.fetch, "X")

	_, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, f.cursors)

	state := WalkerState{Cursor: "X", Pages: 4}
	f2 := &scriptedFetcher{pages: twoPages()[1:]}
	restored := Restore(f2.fetch, state)
	assert.Equal(t, state, restored.State())

	_, err = restored.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Pages())
	assert.True(t, restored.Done())
	assert.Equal(t, []string{"X"}, f2.cursors)
}

func TestWalker_RestoreDone(t *testing.T) {
	f := &scriptedFetcher{}
	w := Restore(f.fetch, WalkerState{Cursor: "Y", Pages: 2, Done: true})

	_, err := w.Next(context.Background())
	assert.ErrorIs(t, err, ErrWalkDone)
	assert.Empty(t, f.cursors)
}

func TestWalker_All(t *testing.T) {
	f := &scriptedFetcher{pages: twoPages()}
	w := NewWalker(f.fetch, "")

	var items []int
	for page, err := range w.All(context.Background()) {
		require.NoError(t, err)
		items = append(items, page.Items...)
	}

	assert.Equal(t, []int{1, 2, 3}, items)
	assert.True(t, w.Done())
}

func TestWalker_AllStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	f := &scriptedFetcher{pages: twoPages(), fail: map[int]error{1: boom}}
	w := NewWalker(f.fetch, "")

	var errs []error
	pages := 0
	for _, err := range w.All(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pages++
	}

	assert.Equal(t, 1, pages)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.False(t, w.Done())
}

func TestWalker_AllEarlyBreak(t *testing.T) {
	f := &scriptedFetcher{pages: twoPages()}
	w := NewWalker(f.fetch, "")

	for range w.All(context.Background()) {
		break
	}

	assert.Len(t, f.cursors, 1, "breaking must not fetch further pages")
	assert.Equal(t, "X", w.Cursor())
}

func TestWalker_StalledCursor(t *testing.T) {
	repeat := Page[int]{Items: []int{9}, PageInfo: &PageInfo{EndCursor: strPtr("X"), HasNextPage: true}}
	f := &scriptedFetcher{pages: []Page[int]{repeat, repeat, repeat}}
	w := NewWalker(f.fetch, "")

	_, err := w.Next(context.Background())
	require.NoError(t, err)

	_, err = w.Next(context.Background())
	require.ErrorIs(t, err, ErrStalledCursor)
	assert.Equal(t, "X", w.Cursor())
	assert.Equal(t, 1, w.Pages(), "a repeated page is not counted")
	assert.False(t, w.Done())
}

func TestWalker_AllStopsOnStalledCursor(t *testing.T) {
	repeat := Page[int]{Items: []int{9}, PageInfo: &PageInfo{EndCursor: strPtr("X"), HasNextPage: true}}
	f := &scriptedFetcher{pages: []Page[int]{repeat, repeat, repeat, repeat}}
	w := NewWalker(f.fetch, "X")

	var errs []error
	for _, err := range w.All(context.Background()) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrStalledCursor)
	assert.Len(t, f.cursors, 1)
}
