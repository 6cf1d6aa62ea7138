package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher := NewRedisPublisher("localhost:6379", 0, "test_estate", 1, 10)
	defer publisher.Close()

	// Test if Redis is available
	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	require.NoError(t, client.Del(ctx, "test_estate:0").Err())

	err := publisher.Publish(ctx, "flats", []byte("test_message"))
	require.NoError(t, err)

	messages, err := client.XRange(ctx, "test_estate:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	// base64 of "test_message"
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values["flats"])

	for i := 0; i < 15; i++ {
		require.NoError(t, publisher.Publish(ctx, "flats", []byte("x")))
	}
	require.NoError(t, publisher.TrimStreams(ctx))

	length, err := client.XLen(ctx, "test_estate:0").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(10), length)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "flats", []byte("x")))
	assert.NoError(t, p.TrimStreams(context.Background()))
	assert.NoError(t, p.Close())
}
