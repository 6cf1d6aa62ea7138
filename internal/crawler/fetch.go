package crawler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/logger"
	apperrors "sjsage522/estateworker/pkg/errors"
	"sjsage522/estateworker/services/cache"
	"sjsage522/estateworker/services/metrics"
)

// FetcherConfig tunes pacing, retries and the rate-limit cool-down
type FetcherConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           int
	RetryDelay        time.Duration
	BlockKey          string
	BlockTime         time.Duration
}

// Fetcher fetches pages politely. Requests are paced by a token bucket,
// network failures are retried with a linearly growing delay, and a
// throttled response blocks every fetch for BlockTime through the cache.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	blocker *cache.Blocker
	cfg     FetcherConfig
	metrics *metrics.Collector
	log     *logger.Logger
}

// NewFetcher creates a fetcher. cacheSvc may be nil to disable the cool-down.
func NewFetcher(cfg FetcherConfig, cacheSvc cache.CacheService, m *metrics.Collector) *Fetcher {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BlockKey == "" {
		cfg.BlockKey = "estate_rate_limited"
	}

	f := &Fetcher{
		client:  helpers.NewHTTPClient(cfg.Timeout),
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		metrics: m,
		log:     logger.ForFetcher(),
	}
	if cacheSvc != nil {
		f.blocker = cache.NewBlocker(cacheSvc, cfg.BlockKey)
	}
	return f
}

// Fetch loads url, retrying retryable failures up to cfg.Retries times.
// Attempt n waits n*RetryDelay before running.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * f.cfg.RetryDelay
			f.log.Warn().
				Err(lastErr).
				Str("url", url).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying fetch")
			if err := wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		doc, err := f.fetchOnce(ctx, url)
		if err == nil {
			f.metrics.PageFetched()
			return doc, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		f.metrics.FetchError(errorType(err))
		lastErr = err
		if !apperrors.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	if f.blocker != nil {
		blocked, err := f.blocker.Blocked()
		if err != nil {
			f.log.Warn().Err(err).Msg("Cool-down check failed, fetching anyway")
		}
		if blocked {
			return nil, apperrors.NewRateLimit(url, f.cfg.BlockTime)
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, f.client, url)
	if err != nil {
		if f.blocker != nil && apperrors.IsType(err, apperrors.ErrorTypeRateLimit) {
			if cacheErr := f.blocker.Block(f.cfg.BlockTime); cacheErr != nil {
				f.log.Error().Err(cacheErr).Msg("Failed to store cool-down")
			} else {
				f.log.Warn().Dur("block", f.cfg.BlockTime).Msg("Site is throttling, pausing requests")
			}
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewParsing(url, "HTML parse failed", err)
	}
	return doc, nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorType(err error) string {
	var se *apperrors.ScrapeError
	if errors.As(err, &se) {
		return string(se.Type)
	}
	return "unknown"
}
