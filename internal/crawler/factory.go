package crawler

import (
	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/metrics"
)

// RootLinks pairs every property type with every region. Type URLs are
// absolute and region URLs are relative to them.
func RootLinks(types, regions []Link) []Candidate {
	candidates := make([]Candidate, 0, len(types)*len(regions))
	for _, t := range types {
		for _, r := range regions {
			candidates = append(candidates, Candidate{
				Type:   t,
				Region: Link{URL: t.URL + r.URL, Name: r.Name},
			})
		}
	}
	return candidates
}

// CreateCrawlers creates one listing crawler per (type, region) candidate
func CreateCrawlers(cfg *config.Config, fetcher PageFetcher, m *metrics.Collector) []Crawler {
	normalizer := stats.NewNormalizer(stats.NormalizerConfig{
		CellBlacklist:  cfg.CellBlacklist,
		PriceBlacklist: cfg.PriceBlacklist,
		HectareMarker:  cfg.HectareMarker,
	})

	base := cfg.RealEstateURL()
	types := make([]Link, 0, len(cfg.Lookup.Types))
	for _, t := range cfg.Lookup.Types {
		types = append(types, Link{URL: base + t.URL, Name: t.Name})
	}
	regions := make([]Link, 0, len(cfg.Lookup.Regions))
	for _, r := range cfg.Lookup.Regions {
		regions = append(regions, Link{URL: r.URL, Name: r.Name})
	}

	crawlerCfg := CrawlerConfig{
		SiteURL:     cfg.SiteURL,
		Selectors:   DefaultSelectors(),
		Concurrency: cfg.ScrapeConcurrency,
		Metrics:     m,
	}

	var crawlers []Crawler
	for _, candidate := range RootLinks(types, regions) {
		crawlers = append(crawlers, NewListingCrawler(candidate, fetcher, normalizer, crawlerCfg))
	}

	logger.Info("Created %d crawlers", len(crawlers))
	for i, c := range crawlers {
		logger.Debug("Crawler %d: %s", i, c.GetName())
	}
	return crawlers
}
