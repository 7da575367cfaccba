package harvest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceharvest/internal/downloader"
	"faceharvest/pkg/logger"
)

// Saver writes a list of URLs into a directory
type Saver interface {
	SaveAll(ctx context.Context, urls []string, dir string) ([]downloader.DownloadOutcome, error)
}

// Report summarises one harvest run
type Report struct {
	RunID      string
	Query      string
	Directory  string
	Discovered int
	Saved      int
	Failed     int
	Duration   time.Duration
}

// Harvester turns a query into saved files: paginate, then download
type Harvester struct {
	paginator *Paginator
	saver     Saver
	logger    logger.Logger
}

// NewHarvester creates a harvester from its two collaborators
func NewHarvester(paginator *Paginator, saver Saver, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Harvester{paginator: paginator, saver: saver, logger: log}
}

// Run harvests q into dir. A search failure aborts before anything is
// written. Download failures are counted in the report; whether they also
// abort depends on the Saver's policy, in which case the partial report is
// returned alongside the error.
func (h *Harvester) Run(ctx context.Context, q SearchQuery, dir string) (Report, error) {
	start := time.Now()
	report := Report{
		RunID:     uuid.NewString(),
		Query:     q.Text,
		Directory: dir,
	}

	log := h.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"query":  q.Text,
	})
	log.Info("Starting harvest")

	urls, err := h.paginator.Harvest(ctx, q)
	if err != nil {
		log.WithError(err).Error("Search failed, nothing downloaded")
		return report, err
	}
	report.Discovered = len(urls)

	outcomes, err := h.saver.SaveAll(ctx, urls, dir)
	for _, o := range outcomes {
		if o.Succeeded {
			report.Saved++
		} else {
			report.Failed++
		}
	}
	report.Duration = time.Since(start)

	fields := map[string]interface{}{
		"discovered": report.Discovered,
		"saved":      report.Saved,
		"failed":     report.Failed,
		"duration":   report.Duration,
	}
	if err != nil {
		log.WithError(err).ErrorWithFields("Harvest aborted", fields)
		return report, err
	}

	log.InfoWithFields("Harvest finished", fields)
	return report, nil
}
