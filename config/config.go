package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sjsage522/estateworker/helpers"
	apperrors "sjsage522/estateworker/pkg/errors"
)

// Store drivers
const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
)

// LookupEntry maps a URL segment of the site to the name stored on entries
type LookupEntry struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Lookup lists the property types and regions to scrape
type Lookup struct {
	Types   []LookupEntry `yaml:"types"`
	Regions []LookupEntry `yaml:"regions"`
}

// DefaultLookup returns the property types and regions scraped by default
func DefaultLookup() Lookup {
	return Lookup{
		Types: []LookupEntry{
			{URL: "flats/", Name: "flats"},
			{URL: "homes-summer-residences/", Name: "homes"},
			{URL: "plots-and-lands/", Name: "plots_and_lands"},
		},
		Regions: []LookupEntry{
			{URL: "riga/", Name: "riga"},
			{URL: "riga-region/", Name: "riga_region"},
			{URL: "jurmala/", Name: "jurmala"},
			{URL: "valmiera-and-reg/", Name: "valmiera_region"},
		},
	}
}

// Config represents the application configuration
type Config struct {
	// Site
	SiteURL        string
	RealEstatePath string
	Lookup         Lookup

	// Scraping
	CrawlInterval     time.Duration
	RunOnce           bool
	ScrapeConcurrency int
	RequestsPerSecond float64
	FetchTimeout      time.Duration
	FetchRetries      int
	FetchRetryDelay   time.Duration
	RateLimitBlock    time.Duration

	// Normalization
	CellBlacklist  []string
	PriceBlacklist []string
	HectareMarker  string

	// Storage
	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	PostgresDSN     string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	MetricsAddr  string
	ErrorLogFile string
	Environment  string
}

// LoadConfig loads the configuration from environment variables with defaults.
// When LOOKUP_FILE is set, its types and regions replace the defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "https://www.ss.com"), "/"),
		RealEstatePath: getEnv("REAL_ESTATE_PATH", "/en/real-estate"),
		Lookup:         DefaultLookup(),

		CrawlInterval:     time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 3600)) * time.Second,
		RunOnce:           getEnvBool("RUN_ONCE", false),
		ScrapeConcurrency: getEnvInt("SCRAPE_CONCURRENCY", 4),
		RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 2),
		FetchTimeout:      time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchRetries:      getEnvInt("FETCH_RETRIES", 20),
		FetchRetryDelay:   time.Duration(getEnvInt("FETCH_RETRY_DELAY_SECONDS", 10)) * time.Second,
		RateLimitBlock:    time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,

		CellBlacklist:  getEnvList("CELL_BLACKLIST", "-"),
		PriceBlacklist: getEnvList("PRICE_BLACKLIST", "mon,buy,day,enting"),
		HectareMarker:  getEnv("HECTARE_MARKER", "ha"),

		StoreDriver:     getEnv("STORE_DRIVER", StoreDriverMongo),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "scraped"),
		MongoCollection: getEnv("MONGODB_COLLECTION", "entries"),
		PostgresDSN:     getEnv("POSTGRES_DSN", "postgres://localhost:5432/scraped?sslmode=disable"),

		RedisAddr:            getEnvOrEmpty("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "estate_entries"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		MemcacheAddr: getEnvOrEmpty("MEMCACHE_ADDR", "localhost:11211"),

		MetricsAddr:  getEnvOrEmpty("METRICS_ADDR", ":9090"),
		ErrorLogFile: getEnv("ERROR_LOG_FILE", "errors.log"),
		Environment:  getEnv("ESTATE_ENVIRONMENT", "development"),
	}
	if path := os.Getenv("LOOKUP_FILE"); path != "" {
		lookup, err := LoadLookup(path)
		if err != nil {
			return nil, err
		}
		cfg.Lookup = lookup
	}

	return cfg, nil
}

// LoadLookup reads a YAML file with types and regions lists
func LoadLookup(path string) (Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lookup{}, apperrors.NewConfiguration("failed to read lookup file "+path, err)
	}

	var lookup Lookup
	if err := yaml.Unmarshal(data, &lookup); err != nil {
		return Lookup{}, apperrors.NewConfiguration("failed to parse lookup file "+path, err)
	}
	return lookup, nil
}

// RealEstateURL returns the absolute URL of the real-estate section
func (c *Config) RealEstateURL() string {
	return helpers.JoinURL(c.SiteURL, c.RealEstatePath) + "/"
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.SiteURL, "http://") && !strings.HasPrefix(c.SiteURL, "https://") {
		return apperrors.NewConfiguration(fmt.Sprintf("SITE_URL must be an http(s) URL, got %q", c.SiteURL), nil)
	}
	if c.CrawlInterval <= 0 {
		return apperrors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.ScrapeConcurrency < 1 {
		return apperrors.NewConfiguration("SCRAPE_CONCURRENCY must be at least 1", nil)
	}
	if c.RequestsPerSecond <= 0 {
		return apperrors.NewConfiguration("REQUESTS_PER_SECOND must be positive", nil)
	}
	if c.FetchRetries < 0 {
		return apperrors.NewConfiguration("FETCH_RETRIES must not be negative", nil)
	}
	if c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if len(c.Lookup.Types) == 0 || len(c.Lookup.Regions) == 0 {
		return apperrors.NewConfiguration("at least one property type and one region are required", nil)
	}
	for _, entry := range append(append([]LookupEntry(nil), c.Lookup.Types...), c.Lookup.Regions...) {
		if entry.URL == "" || entry.Name == "" {
			return apperrors.NewConfiguration(fmt.Sprintf("lookup entry %+v needs both url and name", entry), nil)
		}
	}
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return apperrors.NewConfiguration("MONGODB_URI is required for the mongo store", nil)
		}
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return apperrors.NewConfiguration("POSTGRES_DSN is required for the postgres store", nil)
		}
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver), nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvOrEmpty is like getEnv but keeps a value that is set and empty,
// so an optional service can be switched off with KEY=
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key, defaultValue string) []string {
	return helpers.SplitList(getEnv(key, defaultValue), ",")
}
