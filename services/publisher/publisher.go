package publisher

import "context"

// Publisher fans emitted entries out to downstream consumers
type Publisher interface {
	// Publish publishes a message under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher discards every message. It is used when no Redis server
// is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) TrimStreams(context.Context) error             { return nil }
func (NopPublisher) Close() error                                  { return nil }
