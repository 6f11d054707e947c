// Package jma retrieves the JMA 防災情報XML Atom list feed and the detail
// documents it links to. Retrieval failures are recorded on the result or
// entry, never returned as errors: a failed fetch still yields a renderable
// (possibly empty) state downstream.
package jma

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"github.com/wxjp/jma-warnings-etl/internal/config"
	"github.com/wxjp/jma-warnings-etl/internal/domain"
	"github.com/wxjp/jma-warnings-etl/internal/observability"
)

// detailLinkType marks the Atom link pointing at an entry's structured
// detail document.
const detailLinkType = "application/xml"

// Client fetches feed and detail documents over HTTP with a fixed timeout
// and a single attempt per document.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client using the configured fetch timeout.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		userAgent:  cfg.UserAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchListFeed retrieves and parses the Atom list feed. Transport, status,
// and feed-parse failures all come back as a FetchResult with Err set and no
// entries. Entries keep the raw <updated> text so unparseable timestamps can
// be carried through unchanged.
func (c *Client) FetchListFeed(ctx context.Context, url string) domain.FetchResult {
	body, err := c.get(ctx, url, "list")
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		c.logger.Error("list feed fetch failed", "url", url, "error", err)
		return domain.FetchResult{Err: err.Error()}
	}

	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		c.logger.Error("list feed parse failed", "url", url, "error", err)
		return domain.FetchResult{Err: err.Error()}
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entries = append(entries, normalizeEntry(e))
	}

	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	c.logger.Debug("list feed fetched", "url", url, "entries", len(entries))
	return domain.FetchResult{Entries: entries}
}

// FetchDetail retrieves one entry's linked detail document and returns a new
// entry with either the raw bytes or the recorded failure text. The input
// entry is never mutated.
func (c *Client) FetchDetail(ctx context.Context, entry domain.FeedEntry) domain.FeedEntry {
	body, err := c.get(ctx, entry.DetailURL, "detail")
	if err != nil {
		c.metrics.DetailFetches.WithLabelValues("error").Inc()
		c.logger.Warn("detail fetch failed", "entry_id", entry.ID, "url", entry.DetailURL, "error", err)
		entry.DetailFetchErr = err.Error()
		return entry
	}

	c.metrics.DetailFetches.WithLabelValues("success").Inc()
	entry.DetailBytes = body
	return entry
}

// get performs a single GET with the client timeout. No retries: a timeout
// or error is recorded by the caller and the cycle moves on.
func (c *Client) get(ctx context.Context, url, stage string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", stage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s fetch: unexpected status %d", stage, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: read body: %w", stage, err)
	}
	return body, nil
}

// normalizeEntry maps an Atom entry onto the domain type. Absent fields
// become the "N/A" sentinel so downstream string handling stays total. The
// detail link is the first link declaring the application/xml content type.
func normalizeEntry(e *atom.Entry) domain.FeedEntry {
	entry := domain.FeedEntry{
		ID:         domain.NotAvailable,
		ReportedAt: domain.NotAvailable,
		Title:      domain.NotAvailable,
		Author:     domain.NotAvailable,
	}
	if e == nil {
		return entry
	}

	if e.ID != "" {
		entry.ID = e.ID
	}
	if e.Updated != "" {
		entry.ReportedAt = e.Updated
	}
	if e.Title != "" {
		entry.Title = e.Title
	}
	if len(e.Authors) > 0 && e.Authors[0] != nil && e.Authors[0].Name != "" {
		entry.Author = e.Authors[0].Name
	}
	for _, link := range e.Links {
		if link != nil && link.Type == detailLinkType && link.Href != "" {
			entry.DetailURL = link.Href
			break
		}
	}
	return entry
}
