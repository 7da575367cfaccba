package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"faceharvest/pkg/config"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
	"faceharvest/pkg/ratelimit"
	"faceharvest/pkg/storage"
)

// DownloadOutcome records what happened to one URL in SaveAll
type DownloadOutcome struct {
	URL       string
	Path      string
	Succeeded bool
	Err       error
	Duration  time.Duration
}

// Progress is notified once per attempted URL
type Progress interface {
	Add(n int) error
}

// Downloader fetches URLs and writes their bodies to disk, one at a time
type Downloader struct {
	httpClient  *http.Client
	rateLimiter ratelimit.Limiter
	policy      string
	userAgent   string
	progress    Progress
	logger      logger.Logger
}

// Option configures a Downloader
type Option func(*Downloader)

// WithRateLimiter throttles requests through l
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(d *Downloader) { d.rateLimiter = l }
}

// WithPolicy selects the failure policy used by SaveAll
func WithPolicy(policy string) Option {
	return func(d *Downloader) { d.policy = policy }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithProgress reports each attempted URL to p
func WithProgress(p Progress) Option {
	return func(d *Downloader) { d.progress = p }
}

// New creates a Downloader. The default policy isolates failures per URL.
func New(httpClient *http.Client, log logger.Logger, opts ...Option) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	d := &Downloader{
		httpClient:  httpClient,
		rateLimiter: ratelimit.Unlimited{},
		policy:      config.PolicyIsolatePerItem,
		userAgent:   "faceharvest/1.0",
		logger:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Save streams rawURL into destinationPath, replacing any existing file.
// Every failure is a DownloadError.
func (d *Downloader) Save(ctx context.Context, rawURL, destinationPath string) error {
	if err := d.rateLimiter.Wait(ctx); err != nil {
		return errors.Download(rawURL, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Download(rawURL, 0, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Download(rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Download(rawURL, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := storage.WriteFile(resp.Body, destinationPath); err != nil {
		return errors.Download(rawURL, resp.StatusCode, err)
	}

	return nil
}

// SaveAll downloads each URL into dir, named by the URL's final path
// segment, in input order. Under isolate-per-item a failed URL is logged
// once at warn level and skipped; under fail-fast the first failure is
// returned and later URLs are not attempted. A cancelled context stops
// the loop under either policy.
func (d *Downloader) SaveAll(ctx context.Context, urls []string, dir string) ([]DownloadOutcome, error) {
	manager, err := storage.NewManager(dir)
	if err != nil {
		return nil, errors.Validation(dir, err.Error())
	}

	outcomes := make([]DownloadOutcome, 0, len(urls))

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		start := time.Now()
		outcome := DownloadOutcome{URL: u}

		name, err := FileName(u)
		if err == nil {
			outcome.Path = manager.Path(name)
			err = d.Save(ctx, u, outcome.Path)
		}
		outcome.Duration = time.Since(start)
		d.tick()

		if err != nil {
			outcome.Err = err
			outcomes = append(outcomes, outcome)

			if d.policy == config.PolicyFailFast {
				return outcomes, err
			}
			d.logger.WithError(err).WarnWithFields("Download failed, skipping", map[string]interface{}{
				"url": u,
			})
			continue
		}

		outcome.Succeeded = true
		outcomes = append(outcomes, outcome)

		d.logger.DebugWithFields("Image saved", map[string]interface{}{
			"url":      u,
			"path":     outcome.Path,
			"duration": outcome.Duration,
		})
	}

	return outcomes, nil
}

func (d *Downloader) tick() {
	if d.progress != nil {
		_ = d.progress.Add(1)
	}
}

// FileName returns the final path segment of rawURL, ignoring any query
// string or fragment. A URL without a usable segment is a DownloadError.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Download(rawURL, 0, err)
	}

	name := path.Base(u.Path)
	switch name {
	case "", ".", "/", "..":
		return "", errors.Download(rawURL, 0, fmt.Errorf("url has no file name"))
	}
	return name, nil
}
