package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/internal/stats"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/publisher"
	"sjsage522/estateworker/services/store"
)

// MockCrawler implements the crawler.Crawler interface for testing
type MockCrawler struct {
	name      string
	entries   []stats.Entry
	scrapeErr error
	calls     int
	mu        sync.Mutex
}

// Ensure MockCrawler implements crawler.Crawler
var _ crawler.Crawler = (*MockCrawler)(nil)

func (m *MockCrawler) Scrape(ctx context.Context) ([]stats.Entry, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.entries, m.scrapeErr
}

func (m *MockCrawler) GetName() string {
	return m.name
}

func (m *MockCrawler) GetProvider() string {
	return "flats"
}

func (m *MockCrawler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trims    int
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		messages: make(map[string][][]byte),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)

	m.messages[key] = append(m.messages[key], messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockStore implements the store.EntryStore interface for testing
type MockStore struct {
	mu        sync.Mutex
	inserted  []stats.Entry
	insertErr error
}

var _ store.EntryStore = (*MockStore)(nil)

func (m *MockStore) Insert(ctx context.Context, entries []stats.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, entries...)
	return nil
}

func (m *MockStore) Close(ctx context.Context) error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

// Ensure MockLogger implements helpers.LoggerInterface
var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{
		errors: make([]string, 0),
		infos:  make([]string, 0),
	}
}

func (m *MockLogger) LogError(component string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, component+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

func entry(t *testing.T, propertyType, location, sub string) stats.Entry {
	t.Helper()
	e, err := stats.BuildEntry(stats.ParseResult{
		Name:         sub,
		Observations: []stats.Observation{{Price: 100000, M2: 50}},
	}, propertyType, location)
	require.NoError(t, err)
	return e
}

func TestWorkerRunOnce(t *testing.T) {
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	mockStore := &MockStore{}

	crawlers := []crawler.Crawler{
		&MockCrawler{name: "flats/riga", entries: []stats.Entry{entry(t, "flats", "riga", "centre"), entry(t, "flats", "riga", "teika")}},
		&MockCrawler{name: "homes/jurmala", entries: []stats.Entry{entry(t, "homes", "jurmala", "dzintari")}},
	}

	w := NewWorker(crawlers, mockStore, mockPublisher, mockLogger, nil, time.Hour, 2)
	w.newRunID = func() string { return "run-1" }

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Crawlers)
	assert.Equal(t, 0, summary.FailedCrawlers)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 3, summary.Published)

	// entries keep crawler order
	require.Len(t, mockStore.inserted, 3)
	assert.Equal(t, "centre", mockStore.inserted[0].SubLocation)
	assert.Equal(t, "dzintari", mockStore.inserted[2].SubLocation)

	require.Len(t, mockPublisher.messages["flats"], 2)
	require.Len(t, mockPublisher.messages["homes"], 1)
	assert.Equal(t, 1, mockPublisher.trims)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(mockPublisher.messages["homes"][0], &decoded))
	assert.Equal(t, "dzintari", decoded["subLocation"])
	assert.Equal(t, float64(2000), decoded["medianPriceM2"])

	assert.Empty(t, mockLogger.Errors(), "No errors should have been logged")
}

func TestWorkerCrawlerError(t *testing.T) {
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	mockStore := &MockStore{}

	crawlers := []crawler.Crawler{
		&MockCrawler{name: "ErrorCrawler", scrapeErr: errors.New("test error")},
		&MockCrawler{name: "flats/riga", entries: []stats.Entry{entry(t, "flats", "riga", "centre")}},
	}

	w := NewWorker(crawlers, mockStore, mockPublisher, mockLogger, nil, time.Hour, 1)

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedCrawlers)
	assert.Equal(t, 1, summary.Entries)
	assert.NotEmpty(t, summary.RunID)

	errs := mockLogger.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "ErrorCrawler", "Error should mention the crawler name")
	assert.Contains(t, errs[0], "test error", "Error should contain the error message")
}

func TestWorkerStoreError(t *testing.T) {
	mockPublisher := NewMockPublisher()
	mockStore := &MockStore{insertErr: errors.New("connection lost")}

	crawlers := []crawler.Crawler{
		&MockCrawler{name: "flats/riga", entries: []stats.Entry{entry(t, "flats", "riga", "centre")}},
	}

	w := NewWorker(crawlers, mockStore, mockPublisher, NewMockLogger(), nil, time.Hour, 1)

	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
	assert.Empty(t, mockPublisher.messages, "Nothing is published when storing fails")
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	mockCrawler := &MockCrawler{name: "flats/riga", entries: []stats.Entry{entry(t, "flats", "riga", "centre")}}
	mockStore := &MockStore{}

	w := NewWorker([]crawler.Crawler{mockCrawler}, mockStore, NewMockPublisher(), NewMockLogger(), nil, 10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return mockCrawler.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.True(t, strings.HasPrefix(mockStore.inserted[0].Type, "flats"))
}

func TestWorkerLogsRunSummary(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Default
	logger.Default = logger.New(&buf)
	defer func() { logger.Default = prev }()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	crawlers := []crawler.Crawler{
		&MockCrawler{name: "flats/riga", entries: []stats.Entry{entry(t, "flats", "riga", "centre")}},
	}
	w := NewWorker(crawlers, &MockStore{}, NewMockPublisher(), NewMockLogger(), nil, time.Hour, 1)
	w.newRunID = func() string { return "run-7" }

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "worker", line["component"])
	assert.Equal(t, "run-7", line["run_id"])
	assert.Equal(t, "Run finished", line["message"])
	assert.Equal(t, float64(1), line["entries"])
	assert.Equal(t, float64(1), line["published"])
}
