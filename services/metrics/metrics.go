package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "estateworker"

// Collector holds the worker's prometheus collectors. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	pagesFetched   prometheus.Counter
	fetchErrors    *prometheus.CounterVec
	observations   *prometheus.CounterVec
	entriesEmitted *prometheus.CounterVec
	entriesStored  prometheus.Counter
	cycleDuration  prometheus.Histogram
	lastSuccess    prometheus.Gauge
}

// NewCollector registers all collectors on a private registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages fetched successfully.",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed page fetch attempts by error type.",
		}, []string{"type"}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Scraped listing rows, kept or dropped.",
		}, []string{"result"}),
		entriesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_emitted_total",
			Help:      "Aggregated entries produced per property type.",
		}, []string{"type"}),
		entriesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_stored_total",
			Help:      "Entries written to the store.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full scrape cycle.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that stored its entries.",
		}),
	}

	c.registry.MustRegister(
		c.pagesFetched,
		c.fetchErrors,
		c.observations,
		c.entriesEmitted,
		c.entriesStored,
		c.cycleDuration,
		c.lastSuccess,
	)
	return c
}

func (c *Collector) PageFetched() {
	if c == nil {
		return
	}
	c.pagesFetched.Inc()
}

func (c *Collector) FetchError(errType string) {
	if c == nil {
		return
	}
	c.fetchErrors.WithLabelValues(errType).Inc()
}

// Observations records the rows kept and dropped on one page
func (c *Collector) Observations(kept, dropped int) {
	if c == nil {
		return
	}
	c.observations.WithLabelValues("kept").Add(float64(kept))
	c.observations.WithLabelValues("dropped").Add(float64(dropped))
}

func (c *Collector) EntriesEmitted(propertyType string, n int) {
	if c == nil {
		return
	}
	c.entriesEmitted.WithLabelValues(propertyType).Add(float64(n))
}

func (c *Collector) EntriesStored(n int) {
	if c == nil {
		return
	}
	c.entriesStored.Add(float64(n))
	c.lastSuccess.SetToCurrentTime()
}

func (c *Collector) CycleFinished(d time.Duration) {
	if c == nil {
		return
	}
	c.cycleDuration.Observe(d.Seconds())
}

// Registry exposes the private registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
