package store

import (
	"context"
	"fmt"
	"time"

	"sjsage522/estateworker/internal/stats"
)

// EntryStore persists aggregated entries
type EntryStore interface {
	Insert(ctx context.Context, entries []stats.Entry) error
	Close(ctx context.Context) error
}

// Options selects and configures a store driver
type Options struct {
	Driver          string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	PostgresDSN     string
}

// Open connects to the store named by opts.Driver ("mongo" or "postgres")
func Open(ctx context.Context, opts Options) (EntryStore, error) {
	switch opts.Driver {
	case "mongo", "":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	case "postgres":
		return NewPostgresStore(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}

// stamp copies entries and sets CreatedAt to now truncated to the hour, so
// every entry of one run shares the same bucket.
func stamp(entries []stats.Entry, now time.Time) []stats.Entry {
	createdAt := now.UTC().Truncate(time.Hour)
	out := make([]stats.Entry, len(entries))
	for i, e := range entries {
		e.CreatedAt = createdAt
		out[i] = e
	}
	return out
}
