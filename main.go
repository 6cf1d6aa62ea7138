package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"
	"sjsage522/estateworker/services/metrics"
	"sjsage522/estateworker/services/publisher"
	"sjsage522/estateworker/services/store"
	"sjsage522/estateworker/services/worker"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("site", cfg.SiteURL).
		Str("store", cfg.StoreDriver).
		Dur("crawl_interval", cfg.CrawlInterval).
		Bool("run_once", cfg.RunOnce).
		Msg("Starting application")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	fetcher := crawler.NewFetcher(crawler.FetcherConfig{
		Timeout:           cfg.FetchTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Retries:           cfg.FetchRetries,
		RetryDelay:        cfg.FetchRetryDelay,
		BlockKey:          "estate_rate_limited",
		BlockTime:         cfg.RateLimitBlock,
	}, services.Cache, services.Metrics)

	crawlers := crawler.CreateCrawlers(cfg, fetcher, services.Metrics)
	if len(crawlers) == 0 {
		log.Fatal().Msg("No crawlers were created")
	}

	w := worker.NewWorker(
		crawlers,
		services.Store,
		services.Publisher,
		helpers.NewLogger(cfg.ErrorLogFile),
		services.Metrics,
		cfg.CrawlInterval,
		cfg.ScrapeConcurrency,
	)

	if cfg.RunOnce {
		summary, err := w.RunOnce(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Run failed")
			services.Cleanup()
			os.Exit(1)
		}
		log.Info().
			Str("run_id", summary.RunID).
			Int("entries", summary.Entries).
			Int("failed_crawlers", summary.FailedCrawlers).
			Msg("Run finished")
		return
	}

	log.Info().Msg("Starting real-estate worker")
	if err := w.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Worker exited with error")
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache         cache.CacheService
	Publisher     publisher.Publisher
	Store         store.EntryStore
	Metrics       *metrics.Collector
	metricsServer *metrics.Server
	cleaned       bool
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.cleaned {
		return
	}
	s.cleaned = true

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown: %v", err)
		}
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		if err := s.Store.Close(ctx); err != nil {
			logger.Warn("Store close: %v", err)
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Metrics: metrics.NewCollector()}

	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
			services.Cache = cache.NewMemoryCache()
		} else {
			services.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	} else {
		services.Cache = cache.NewMemoryCache()
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, err
		}
		services.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	} else {
		services.Publisher = publisher.NopPublisher{}
		logger.ForPublisher().Info().Msg("REDIS_ADDR is empty, entries will not be published")
	}

	entryStore, err := store.Open(ctx, store.Options{
		Driver:          cfg.StoreDriver,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
		PostgresDSN:     cfg.PostgresDSN,
	})
	if err != nil {
		services.Cleanup()
		return nil, err
	}
	services.Store = entryStore

	if cfg.MetricsAddr != "" {
		services.metricsServer = metrics.NewServer(cfg.MetricsAddr, services.Metrics)
		go func() {
			if err := services.metricsServer.Start(); err != nil {
				logger.Error("Metrics server stopped: %v", err)
			}
		}()
	}

	return services, nil
}
