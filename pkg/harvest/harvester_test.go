package harvest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceharvest/internal/downloader"
	"faceharvest/pkg/bing"
	fherrors "faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

type fakeSaver struct {
	failing map[string]bool
	abort   error
	gotURLs []string
	gotDir  string
	called  bool
}

func (s *fakeSaver) SaveAll(ctx context.Context, urls []string, dir string) ([]downloader.DownloadOutcome, error) {
	s.called = true
	s.gotURLs = urls
	s.gotDir = dir

	var outcomes []downloader.DownloadOutcome
	for _, u := range urls {
		if s.failing[u] {
			err := fherrors.Download(u, 404, errors.New("not found"))
			outcomes = append(outcomes, downloader.DownloadOutcome{URL: u, Err: err})
			if s.abort != nil {
				return outcomes, s.abort
			}
			continue
		}
		outcomes = append(outcomes, downloader.DownloadOutcome{URL: u, Succeeded: true})
	}
	return outcomes, nil
}

func TestHarvesterRun(t *testing.T) {
	fetcher := &scriptedFetcher{pages: []*bing.Page{page(2, "u1", "u2"), page(3, "u3")}}
	saver := &fakeSaver{failing: map[string]bool{"u2": true}}
	log := logger.NewTestLogger()

	h := NewHarvester(NewPaginator(fetcher, 0, log), saver, log)
	report, err := h.Run(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 10}, "/data/raw")
	require.NoError(t, err)

	_, parseErr := uuid.Parse(report.RunID)
	assert.NoError(t, parseErr)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 2, report.Saved)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"u1", "u2", "u3"}, saver.gotURLs)
	assert.Equal(t, "/data/raw", saver.gotDir)
	assert.True(t, log.HasMessage("INFO", "Harvest finished"))
}

func TestHarvesterSearchFailureSkipsDownloads(t *testing.T) {
	fetcher := &scriptedFetcher{errAt: 0, err: fherrors.API("fetch page", 401, "non-success status", nil)}
	saver := &fakeSaver{}

	h := NewHarvester(NewPaginator(fetcher, 0, logger.NewNopLogger()), saver, logger.NewNopLogger())
	report, err := h.Run(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 10}, t.TempDir())

	require.Error(t, err)
	assert.True(t, fherrors.IsType(err, fherrors.ErrorTypeAPI))
	assert.False(t, saver.called)
	assert.Zero(t, report.Discovered)
}

func TestHarvesterFailFastReturnsPartialReport(t *testing.T) {
	abort := fherrors.Download("u2", 404, errors.New("not found"))
	fetcher := &scriptedFetcher{pages: []*bing.Page{page(1, "u1", "u2", "u3")}}
	saver := &fakeSaver{failing: map[string]bool{"u2": true}, abort: abort}

	h := NewHarvester(NewPaginator(fetcher, 0, logger.NewNopLogger()), saver, logger.NewNopLogger())
	report, err := h.Run(context.Background(), SearchQuery{Text: "q", PageSize: 2, MaxResults: 10}, t.TempDir())

	assert.ErrorIs(t, err, abort)
	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 1, report.Saved)
	assert.Equal(t, 1, report.Failed)
}
