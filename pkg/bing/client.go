package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

// maxBodySize bounds how much of a search response we are willing to read
const maxBodySize = 16 << 20

// Client issues authenticated image search requests. It holds no state
// between calls and is safe to share.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a search client. A nil httpClient gets a client with
// a 30 second timeout; a nil log falls back to the global logger.
func NewClient(httpClient *http.Client, endpoint, apiKey string, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "faceharvest/1.0",
		},
		logger: log,
	}
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPage requests count results for query starting at offset.
// Any transport failure, non-2xx status or malformed body is an ApiError.
func (c *Client) FetchPage(ctx context.Context, query string, count, offset int) (*Page, error) {
	const op = "fetch page"

	req, err := c.newRequest(ctx, query, count, offset)
	if err != nil {
		return nil, errors.API(op, 0, "failed to create request", err)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending search request", map[string]interface{}{
		"query":  query,
		"count":  count,
		"offset": offset,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("search request failed", map[string]interface{}{
			"query":    query,
			"offset":   offset,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.API(op, 0, "network error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.ErrorWithFields("search returned non-success status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil, errors.API(op, resp.StatusCode, "non-success status", nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&parsed); err != nil {
		return nil, errors.API(op, resp.StatusCode, "failed to parse response", err)
	}

	page, err := parsed.toPage()
	if err != nil {
		return nil, errors.API(op, resp.StatusCode, "unexpected response shape", err)
	}

	c.logger.DebugWithFields("search page received", map[string]interface{}{
		"offset":      offset,
		"next_offset": page.NextOffset,
		"urls":        len(page.URLs),
		"duration":    duration,
	})

	return page, nil
}

func (c *Client) newRequest(ctx context.Context, query string, count, offset int) (*http.Request, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}

	params := u.Query()
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("offset", strconv.Itoa(offset))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set(SubscriptionKeyHeader, c.apiKey)

	return req, nil
}

func (r *searchResponse) toPage() (*Page, error) {
	if r.NextOffset == nil {
		return nil, fmt.Errorf("missing nextOffset")
	}
	if r.TotalEstimatedMatches == nil {
		return nil, fmt.Errorf("missing totalEstimatedMatches")
	}
	if r.Value == nil {
		return nil, fmt.Errorf("missing value")
	}

	urls := make([]string, 0, len(r.Value))
	for i, v := range r.Value {
		if v.ContentURL == "" {
			return nil, fmt.Errorf("value[%d] has no contentUrl", i)
		}
		urls = append(urls, v.ContentURL)
	}

	return &Page{
		URLs:                  urls,
		NextOffset:            *r.NextOffset,
		TotalEstimatedMatches: *r.TotalEstimatedMatches,
	}, nil
}
