package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	apperrors "sjsage522/estateworker/pkg/errors"
	"sjsage522/estateworker/services/metrics"
)

// ListingCrawler scrapes every sub-location of one (type, region) candidate
type ListingCrawler struct {
	candidate   Candidate
	siteURL     string
	selectors   Selectors
	concurrency int
	fetcher     PageFetcher
	normalizer  *stats.Normalizer
	metrics     *metrics.Collector
	log         *logger.Logger
}

// NewListingCrawler creates a crawler for one candidate
func NewListingCrawler(candidate Candidate, fetcher PageFetcher, normalizer *stats.Normalizer, cfg CrawlerConfig) *ListingCrawler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	c := &ListingCrawler{
		candidate:   candidate,
		siteURL:     strings.TrimRight(cfg.SiteURL, "/"),
		selectors:   cfg.Selectors,
		concurrency: cfg.Concurrency,
		fetcher:     fetcher,
		normalizer:  normalizer,
		metrics:     cfg.Metrics,
	}
	c.log = logger.ForScraper(c.GetName())
	return c
}

// GetName returns "type/region"
func (c *ListingCrawler) GetName() string {
	return c.candidate.Type.Name + "/" + c.candidate.Region.Name
}

// GetProvider returns the property type name
func (c *ListingCrawler) GetProvider() string {
	return c.candidate.Type.Name
}

// Discover lists the sub-locations of the region. A region without
// sub-locations is scraped as a whole.
func (c *ListingCrawler) Discover(ctx context.Context) ([]Link, error) {
	doc, err := c.fetcher.Fetch(ctx, c.candidate.Region.URL)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", c.GetName(), err)
	}

	links := SubRegionLinks(doc, c.selectors)
	if len(links) == 0 {
		return []Link{{
			URL:  strings.TrimPrefix(c.candidate.Region.URL, c.siteURL),
			Name: c.candidate.Region.Name,
		}}, nil
	}
	return links, nil
}

// ScrapeLink walks every results page of one sub-location
func (c *ListingCrawler) ScrapeLink(ctx context.Context, link Link) (stats.ParseResult, error) {
	result := stats.ParseResult{Name: helpers.NormalizeText(link.Name)}

	first := SellURL(c.siteURL, link.URL)
	doc, err := c.fetcher.Fetch(ctx, first)
	if err != nil {
		return stats.ParseResult{}, err
	}

	headers := ListHeaders(doc, c.selectors)
	if len(headers) == 0 {
		return result, nil
	}

	visited := map[string]struct{}{first: {}}
	for {
		observations, dropped := ScrapePage(doc, c.selectors, headers, c.normalizer)
		c.metrics.Observations(len(observations), dropped)
		result.Observations = append(result.Observations, observations...)

		next := NextPageURL(doc, c.siteURL, c.selectors)
		if next == "" {
			break
		}
		if _, seen := visited[next]; seen {
			c.log.Warn().Str("url", next).Msg("Pagination loops back, stopping")
			break
		}
		visited[next] = struct{}{}

		if doc, err = c.fetcher.Fetch(ctx, next); err != nil {
			return stats.ParseResult{}, err
		}
	}

	return result, nil
}

// Scrape discovers sub-locations, scrapes them concurrently and aggregates
// each non-empty one into an entry. Failed sub-locations are skipped; an
// error is returned only when none could be scraped.
func (c *ListingCrawler) Scrape(ctx context.Context) ([]stats.Entry, error) {
	links, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]stats.ParseResult, len(links))
	errs := make([]error, len(links))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			results[i], errs[i] = c.ScrapeLink(ctx, link)
			return nil
		})
	}
	// failures are collected per link in errs
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []stats.Entry
	var failed []error
	for i, result := range results {
		if errs[i] != nil {
			c.log.Error().Err(errs[i]).Str("link", links[i].URL).Msg("Failed to scrape sub-location")
			failed = append(failed, fmt.Errorf("%s: %w", links[i].URL, errs[i]))
			continue
		}
		if len(result.Observations) == 0 {
			continue
		}

		entry, err := stats.BuildEntry(result, c.candidate.Type.Name, c.candidate.Region.Name)
		if err != nil {
			err = apperrors.NewValidation(links[i].URL, "aggregate failed", err)
			c.log.Error().Err(err).Str("link", links[i].URL).Msg("Failed to aggregate sub-location")
			failed = append(failed, err)
			continue
		}
		entries = append(entries, entry)
	}

	if len(failed) > 0 && len(failed) == len(links) {
		return nil, fmt.Errorf("%s: all %d sub-locations failed: %w", c.GetName(), len(links), errors.Join(failed...))
	}

	c.metrics.EntriesEmitted(c.GetProvider(), len(entries))
	c.log.Info().
		Int("links", len(links)).
		Int("failed", len(failed)).
		Int("entries", len(entries)).
		Msg("Scraped candidate")
	return entries, nil
}
