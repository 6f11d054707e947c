// Package pipeline orchestrates one cached fetch-and-parse cycle: list feed,
// per-entry detail documents, fragment extraction, and flattening into the
// ordered warning-record sequence handed to consumers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/wxjp/jma-warnings-etl/internal/domain"
	"github.com/wxjp/jma-warnings-etl/internal/observability"
)

// Fetcher retrieves the list feed and individual detail documents.
type Fetcher interface {
	FetchListFeed(ctx context.Context, url string) domain.FetchResult
	FetchDetail(ctx context.Context, entry domain.FeedEntry) domain.FeedEntry
}

// RecordPublisher hands completed records to an external sink.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []domain.WarningRecord) error
}

// Result is the outcome of one pipeline run: the audit view of every feed
// entry (detail payloads stripped), the flattened warning records, and the
// recorded list-fetch error, if any. FeedErr set with zero records is a
// distinguishable state from a successful empty feed.
type Result struct {
	Entries []domain.FeedEntry
	Records []domain.WarningRecord
	FeedErr string
}

// Pipeline composes fetching, parsing, and caching. The fetch phase (list
// plus all detail documents) is cached per (url, hours) key for the
// configured TTL; the parse phase re-runs on the cached fetch every call.
type Pipeline struct {
	fetcher   Fetcher
	publisher RecordPublisher // nil when publishing is disabled
	cache     *gocache.Cache
	group     singleflight.Group
	logger    *slog.Logger
	metrics   *observability.Metrics

	feedURL string
	hours   int
	refresh time.Duration
	ready   atomic.Bool
}

// Options carry the fixed pipeline configuration.
type Options struct {
	FeedURL         string
	HoursThreshold  int
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

// New creates a Pipeline. Pass a nil publisher to disable sink publishing.
func New(fetcher Fetcher, publisher RecordPublisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		publisher: publisher,
		cache:     gocache.New(opts.CacheTTL, opts.CacheTTL),
		logger:    logger,
		metrics:   metrics,
		feedURL:   opts.FeedURL,
		hours:     opts.HoursThreshold,
		refresh:   opts.RefreshInterval,
	}
}

// DefaultHours returns the configured retention window.
func (p *Pipeline) DefaultHours() int { return p.hours }

// FeedURL returns the configured list-feed URL.
func (p *Pipeline) FeedURL() string { return p.feedURL }

// CheckReadiness returns nil once the pipeline has completed at least one
// fetch-and-parse cycle.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a fetch cycle yet")
	}
	return nil
}

// cacheKey identifies one fetch cycle. A changed threshold forces a refetch
// even though a broader cached window could in principle be reused; keeping
// the key exact avoids silently changing which bytes a cycle is derived from.
func cacheKey(url string, hours int) string {
	return fmt.Sprintf("%s|%d", url, hours)
}

// Run executes one cycle for the given feed URL and retention window,
// reusing the cached fetch when one is still live. Run never fails: feed
// errors come back inside the Result.
func (p *Pipeline) Run(ctx context.Context, url string, hours int) Result {
	start := time.Now()

	fetched := p.fetchCycle(ctx, url, hours)
	parsed := domain.ParseEntries(fetched.Entries, hours)
	records := domain.FlattenRecords(parsed)

	for _, pe := range parsed {
		for _, f := range pe.Fragments {
			if f.Status != domain.StatusOK {
				p.metrics.SyntheticFragments.WithLabelValues(f.Status.Label()).Inc()
			}
		}
	}
	p.metrics.RecordsExtracted.Add(float64(len(records)))
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("cycle complete",
		"url", url,
		"hours", hours,
		"entries", len(fetched.Entries),
		"records", len(records),
		"feed_error", fetched.Err != "",
	)

	return Result{
		Entries: stripDetailBytes(fetched.Entries),
		Records: records,
		FeedErr: fetched.Err,
	}
}

// Invalidate drops the cached fetch for one (url, hours) key so the next run
// re-issues network calls. This backs the consumer-facing refresh action.
func (p *Pipeline) Invalidate(url string, hours int) {
	p.cache.Delete(cacheKey(url, hours))
}

// fetchCycle returns the cached fetch for the key or performs a new one.
// Concurrent callers on the same key share a single in-flight fetch.
func (p *Pipeline) fetchCycle(ctx context.Context, url string, hours int) domain.FetchResult {
	key := cacheKey(url, hours)

	if cached, ok := p.cache.Get(key); ok {
		p.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached.(domain.FetchResult)
	}
	p.metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, _, _ := p.group.Do(key, func() (any, error) {
		// Re-check under the flight lock: a concurrent caller may have
		// populated the cache while this one waited.
		if cached, ok := p.cache.Get(key); ok {
			return cached.(domain.FetchResult), nil
		}
		res := p.doFetch(ctx, url, hours)
		p.cache.SetDefault(key, res)
		return res, nil
	})
	return v.(domain.FetchResult)
}

// doFetch performs the uncached fetch phase: the list feed, then one detail
// fetch for each within-window entry that declares a detail link. Fetches are
// sequential with no overlap and a single attempt each.
func (p *Pipeline) doFetch(ctx context.Context, url string, hours int) domain.FetchResult {
	res := p.fetcher.FetchListFeed(ctx, url)
	for i, entry := range res.Entries {
		if entry.DetailURL == "" || !domain.WithinWindow(entry.ReportedAt, hours) {
			continue
		}
		res.Entries[i] = p.fetcher.FetchDetail(ctx, entry)
	}
	return res
}

// RunLoop periodically re-runs the pipeline for the configured feed and
// window, publishing fresh records to the sink. Returns immediately when no
// refresh interval is configured; otherwise blocks until ctx is cancelled.
func (p *Pipeline) RunLoop(ctx context.Context) error {
	if p.refresh <= 0 {
		return nil
	}

	p.logger.Info("refresh loop started", "interval", p.refresh)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.refreshOnce(ctx)

	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			p.Invalidate(p.feedURL, p.hours)
			p.refreshOnce(ctx)
		}
	}
}

func (p *Pipeline) refreshOnce(ctx context.Context) {
	result := p.Run(ctx, p.feedURL, p.hours)
	if p.publisher == nil || len(result.Records) == 0 {
		return
	}
	if err := p.publisher.PublishRecords(ctx, result.Records); err != nil {
		p.logger.Error("publish records failed", "error", err, "records", len(result.Records))
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(result.Records)))
}

// stripDetailBytes copies entries without their raw payloads for the audit
// view; cached entries keep their bytes for later re-parsing.
func stripDetailBytes(entries []domain.FeedEntry) []domain.FeedEntry {
	out := make([]domain.FeedEntry, len(entries))
	for i, e := range entries {
		e.DetailBytes = nil
		out[i] = e
	}
	return out
}
