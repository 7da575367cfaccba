package harvest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceharvest/pkg/bing"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

// scriptedFetcher returns pages in order and records requested offsets
type scriptedFetcher struct {
	pages   []*bing.Page
	errAt   int
	err     error
	offsets []int
	counts  []int
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, query string, count, offset int) (*bing.Page, error) {
	call := len(f.offsets)
	f.offsets = append(f.offsets, offset)
	f.counts = append(f.counts, count)

	if f.err != nil && call == f.errAt {
		return nil, f.err
	}
	if call >= len(f.pages) {
		return nil, fmt.Errorf("unexpected call %d at offset %d", call, offset)
	}
	return f.pages[call], nil
}

func page(next int, urls ...string) *bing.Page {
	return &bing.Page{URLs: urls, NextOffset: next}
}

func TestHarvestStopConditions(t *testing.T) {
	tests := []struct {
		name        string
		query       SearchQuery
		pages       []*bing.Page
		wantURLs    []string
		wantOffsets []int
	}{
		{
			name:        "short first page",
			query:       SearchQuery{Text: "q", PageSize: 3, MaxResults: 100},
			pages:       []*bing.Page{page(2, "a", "b")},
			wantURLs:    []string{"a", "b"},
			wantOffsets: []int{0},
		},
		{
			name:  "stops on first short delta",
			query: SearchQuery{Text: "q", PageSize: 2, MaxResults: 100},
			pages: []*bing.Page{
				page(2, "a", "b"),
				page(4, "c", "d"),
				page(5, "e"),
			},
			wantURLs:    []string{"a", "b", "c", "d", "e"},
			wantOffsets: []int{0, 2, 4},
		},
		{
			name:  "next offset beyond max results",
			query: SearchQuery{Text: "q", PageSize: 2, MaxResults: 3},
			pages: []*bing.Page{
				page(2, "a", "b"),
				page(4, "c", "d"),
			},
			wantURLs:    []string{"a", "b", "c", "d"},
			wantOffsets: []int{0, 2},
		},
		{
			name:  "next offset equal to max results continues",
			query: SearchQuery{Text: "q", PageSize: 2, MaxResults: 4},
			pages: []*bing.Page{
				page(2, "a", "b"),
				page(4, "c", "d"),
				page(5, "e"),
			},
			wantURLs:    []string{"a", "b", "c", "d", "e"},
			wantOffsets: []int{0, 2, 4},
		},
		{
			name:        "zero max results fetches one page",
			query:       SearchQuery{Text: "q", PageSize: 2, MaxResults: 0},
			pages:       []*bing.Page{page(2, "a", "b")},
			wantURLs:    []string{"a", "b"},
			wantOffsets: []int{0},
		},
		{
			name:  "server skips ahead by more than a page",
			query: SearchQuery{Text: "q", PageSize: 2, MaxResults: 100},
			pages: []*bing.Page{
				page(7, "a", "b"),
				page(8, "c"),
			},
			wantURLs:    []string{"a", "b", "c"},
			wantOffsets: []int{0, 7},
		},
		{
			name:  "duplicates across overlapping windows are kept",
			query: SearchQuery{Text: "q", PageSize: 2, MaxResults: 100},
			pages: []*bing.Page{
				page(2, "a", "b"),
				page(3, "b", "c"),
			},
			wantURLs:    []string{"a", "b", "b", "c"},
			wantOffsets: []int{0, 2},
		},
		{
			name:        "cursor moving backwards stops",
			query:       SearchQuery{Text: "q", PageSize: 2, MaxResults: 100},
			pages:       []*bing.Page{page(2, "a", "b"), page(1, "c", "d")},
			wantURLs:    []string{"a", "b", "c", "d"},
			wantOffsets: []int{0, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &scriptedFetcher{pages: tt.pages}
			p := NewPaginator(fetcher, 0, logger.NewNopLogger())

			urls, err := p.Harvest(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURLs, urls)
			assert.Equal(t, tt.wantOffsets, fetcher.offsets)

			for _, c := range fetcher.counts {
				assert.Equal(t, tt.query.PageSize, c)
			}
			for _, off := range fetcher.offsets[1:] {
				assert.LessOrEqual(t, off, tt.query.MaxResults)
			}
		})
	}
}

func TestHarvestNeverRequestsBeyondMaxResults(t *testing.T) {
	for maxResults := 0; maxResults <= 20; maxResults++ {
		var pages []*bing.Page
		for next := 5; next <= 40; next += 5 {
			pages = append(pages, page(next, "u"))
		}
		fetcher := &scriptedFetcher{pages: pages}
		p := NewPaginator(fetcher, 0, logger.NewNopLogger())

		_, err := p.Harvest(context.Background(), SearchQuery{Text: "q", PageSize: 5, MaxResults: maxResults})
		require.NoError(t, err)

		for _, off := range fetcher.offsets {
			assert.LessOrEqual(t, off, maxResults, "max results %d", maxResults)
		}
	}
}

func TestHarvestErrorReturnsNoPartialResult(t *testing.T) {
	apiErr := errors.API("fetch page", 500, "non-success status", nil)
	fetcher := &scriptedFetcher{
		pages: []*bing.Page{page(2, "a", "b"), page(4, "c", "d")},
		errAt: 1,
		err:   apiErr,
	}
	p := NewPaginator(fetcher, 0, logger.NewNopLogger())

	urls, err := p.Harvest(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 100})
	assert.Nil(t, urls)
	assert.ErrorIs(t, err, apiErr)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
}

func TestHarvestPageCap(t *testing.T) {
	var pages []*bing.Page
	for i := 1; i <= 10; i++ {
		pages = append(pages, page(i*2, "x", "y"))
	}
	fetcher := &scriptedFetcher{pages: pages}
	log := logger.NewTestLogger()
	p := NewPaginator(fetcher, 3, log)

	urls, err := p.Harvest(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 1000})
	require.NoError(t, err)
	assert.Len(t, urls, 6)
	assert.Equal(t, []int{0, 2, 4}, fetcher.offsets)
	assert.True(t, log.HasMessage("WARN", "page limit reached, stopping harvest"))
}

func TestHarvestStalledCursorWarns(t *testing.T) {
	fetcher := &scriptedFetcher{pages: []*bing.Page{page(0, "a")}}
	log := logger.NewTestLogger()
	p := NewPaginator(fetcher, 0, log)

	urls, err := p.Harvest(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, urls)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestSearchQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr bool
	}{
		{name: "valid", query: SearchQuery{Text: "q", PageSize: 1, MaxResults: 0}},
		{name: "empty text", query: SearchQuery{Text: "  ", PageSize: 1}, wantErr: true},
		{name: "zero page size", query: SearchQuery{Text: "q", PageSize: 0}, wantErr: true},
		{name: "negative max", query: SearchQuery{Text: "q", PageSize: 1, MaxResults: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHarvestInvalidQueryMakesNoRequest(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p := NewPaginator(fetcher, 0, logger.NewNopLogger())

	_, err := p.Harvest(context.Background(), SearchQuery{Text: "q", PageSize: 0})
	require.Error(t, err)
	assert.Empty(t, fetcher.offsets)
}
