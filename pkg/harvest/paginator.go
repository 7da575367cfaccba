package harvest

import (
	"context"
	"strings"

	"faceharvest/pkg/bing"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

// DefaultMaxPages caps the number of search calls in one harvest
const DefaultMaxPages = 100

// PageFetcher fetches one page of search results
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, count, offset int) (*bing.Page, error)
}

// SearchQuery is immutable for the duration of a harvest
type SearchQuery struct {
	Text       string
	PageSize   int
	MaxResults int
}

// Validate checks the query can drive a terminating pagination loop
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.Validation("query", "search text is required")
	}
	if q.PageSize <= 0 {
		return errors.Validation("page_size", "page size must be positive")
	}
	if q.MaxResults < 0 {
		return errors.Validation("max_results", "max results cannot be negative")
	}
	return nil
}

// Paginator drives a PageFetcher across successive offsets
type Paginator struct {
	fetcher  PageFetcher
	maxPages int
	logger   logger.Logger
}

// NewPaginator creates a paginator. maxPages <= 0 selects DefaultMaxPages.
func NewPaginator(fetcher PageFetcher, maxPages int, log logger.Logger) *Paginator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Paginator{fetcher: fetcher, maxPages: maxPages, logger: log}
}

// Harvest collects content URLs for q in discovery order. Duplicates across
// pages are kept. The loop stops after the first page whose cursor advanced
// by less than a full page, or whose next offset is beyond MaxResults. No
// request is ever made at an offset greater than MaxResults. A fetch error
// aborts the harvest and nothing gathered so far is returned.
func (p *Paginator) Harvest(ctx context.Context, q SearchQuery) ([]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	log := p.logger.WithField("query", q.Text)

	var urls []string
	offset := 0

	for pages := 1; ; pages++ {
		page, err := p.fetcher.FetchPage(ctx, q.Text, q.PageSize, offset)
		if err != nil {
			return nil, err
		}

		urls = append(urls, page.URLs...)
		delta := page.NextOffset - offset

		log.DebugWithFields("page collected", map[string]interface{}{
			"offset":      offset,
			"next_offset": page.NextOffset,
			"received":    len(page.URLs),
			"total":       len(urls),
		})

		if delta < q.PageSize {
			if delta <= 0 {
				log.WarnWithFields("search cursor did not advance", map[string]interface{}{
					"offset":      offset,
					"next_offset": page.NextOffset,
				})
			}
			break
		}
		if page.NextOffset > q.MaxResults {
			break
		}
		if pages >= p.maxPages {
			log.WarnWithFields("page limit reached, stopping harvest", map[string]interface{}{
				"max_pages": p.maxPages,
				"offset":    page.NextOffset,
			})
			break
		}

		offset = page.NextOffset
	}

	log.InfoWithFields("harvest complete", map[string]interface{}{
		"urls": len(urls),
	})

	return urls, nil
}
