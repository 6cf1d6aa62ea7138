package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/metrics"
	"sjsage522/estateworker/services/publisher"
	"sjsage522/estateworker/services/store"
)

// Worker runs scrape cycles: scrape every candidate, store the entries,
// then publish them.
type Worker struct {
	crawlers      []crawler.Crawler
	store         store.EntryStore
	publisher     publisher.Publisher
	logger        helpers.LoggerInterface
	log           *logger.Logger
	metrics       *metrics.Collector
	crawlInterval time.Duration
	concurrency   int
	newRunID      func() string
}

// Summary describes one finished cycle
type Summary struct {
	RunID          string
	Crawlers       int
	FailedCrawlers int
	Entries        int
	Published      int
	Duration       time.Duration
}

// NewWorker creates a new worker
func NewWorker(
	crawlers []crawler.Crawler,
	st store.EntryStore,
	pub publisher.Publisher,
	errLogger helpers.LoggerInterface,
	m *metrics.Collector,
	crawlInterval time.Duration,
	concurrency int,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		crawlers:      crawlers,
		store:         st,
		publisher:     pub,
		logger:        errLogger,
		log:           logger.ForWorker(),
		metrics:       m,
		crawlInterval: crawlInterval,
		concurrency:   concurrency,
		newRunID:      uuid.NewString,
	}
}

// Start runs a cycle immediately and then every crawl interval until ctx
// is done. Cycle errors are logged, never returned.
func (w *Worker) Start(ctx context.Context) error {
	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.LogError("worker", err)
		}

		timer := time.NewTimer(w.crawlInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce runs a single cycle. Crawler failures are logged and skipped; a
// store failure fails the cycle and nothing is published.
func (w *Worker) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: w.newRunID(), Crawlers: len(w.crawlers)}
	w.logger.LogInfo("Run %s: starting %d crawlers", summary.RunID, len(w.crawlers))

	entries, failed := w.runCrawlers(ctx)
	summary.FailedCrawlers = failed
	summary.Entries = len(entries)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := w.store.Insert(ctx, entries); err != nil {
		summary.Duration = time.Since(start)
		return summary, fmt.Errorf("run %s: store %d entries: %w", summary.RunID, len(entries), err)
	}
	w.metrics.EntriesStored(len(entries))

	summary.Published = w.publishEntries(ctx, entries)

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}

	summary.Duration = time.Since(start)
	w.metrics.CycleFinished(summary.Duration)
	w.log.WithFields(logger.Fields{"run_id": summary.RunID}).Info().
		Int("entries", summary.Entries).
		Int("crawlers", summary.Crawlers).
		Int("failed_crawlers", summary.FailedCrawlers).
		Int("published", summary.Published).
		Dur("duration", summary.Duration).
		Msg("Run finished")
	return summary, nil
}

// runCrawlers runs the crawlers with bounded concurrency and returns their
// entries in crawler order.
func (w *Worker) runCrawlers(ctx context.Context) ([]stats.Entry, int) {
	results := make([][]stats.Entry, len(w.crawlers))
	errs := make([]error, len(w.crawlers))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, c := range w.crawlers {
		i, c := i, c
		g.Go(func() error {
			results[i], errs[i] = c.Scrape(ctx)
			return nil
		})
	}
	// failures are collected per crawler in errs
	_ = g.Wait()

	var entries []stats.Entry
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			if errors.Is(err, context.Canceled) {
				w.log.WithError(err).Debug().Str("crawler", w.crawlers[i].GetName()).Msg("Crawler canceled")
			} else {
				w.logger.LogError(w.crawlers[i].GetName(), err)
			}
			continue
		}
		entries = append(entries, results[i]...)
	}
	return entries, failed
}

func (w *Worker) publishEntries(ctx context.Context, entries []stats.Entry) int {
	published := 0
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			w.logger.LogError(entry.Type, err)
			continue
		}
		if err := w.publisher.Publish(ctx, entry.Type, data); err != nil {
			w.logger.LogError(entry.Type, err)
			continue
		}
		published++
	}
	return published
}
