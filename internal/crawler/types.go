package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/services/metrics"
)

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// Scrape returns one aggregated entry per non-empty sub-location
	Scrape(ctx context.Context) ([]stats.Entry, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the property type the crawler covers
	GetProvider() string
}

// PageFetcher loads a page as a goquery document
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Link is a URL on the site with its display name
type Link struct {
	URL  string
	Name string
}

// Candidate is one (property type, region) pair to scrape. Region.URL is
// absolute.
type Candidate struct {
	Type   Link
	Region Link
}

// Selectors contains CSS selectors for the listing site
type Selectors struct {
	Category      string
	Table         string
	NextPage      string
	PageSuffix    string
	ExcludedPaths []string
}

// DefaultSelectors returns the selectors for ss.com listing pages
func DefaultSelectors() Selectors {
	return Selectors{
		Category:      "h4.category a",
		Table:         "#filter_frm table:nth-child(3)",
		NextPage:      "a[rel='next']",
		PageSuffix:    ".html",
		ExcludedPaths: []string{"/all/", "/other/"},
	}
}

// CrawlerConfig contains configuration shared by listing crawlers
type CrawlerConfig struct {
	SiteURL     string
	Selectors   Selectors
	Concurrency int
	Metrics     *metrics.Collector
}
