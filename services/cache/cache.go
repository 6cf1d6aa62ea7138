package cache

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Blocker records site-wide cool-downs after the site throttles us
type Blocker struct {
	cache CacheService
	key   string
}

// NewBlocker creates a blocker storing its flag under key
func NewBlocker(cache CacheService, key string) *Blocker {
	return &Blocker{cache: cache, key: key}
}

// Block sets the cool-down flag for d
func (b *Blocker) Block(d time.Duration) error {
	if d < time.Second {
		d = time.Second
	}
	until := time.Now().Add(d).UTC().Format(time.RFC3339)
	return b.cache.Set(b.key, []byte(until), d)
}

// Blocked reports whether a cool-down is active. Cache errors other than a
// miss are returned so the caller can decide to proceed.
func (b *Blocker) Blocked() (bool, error) {
	_, err := b.cache.Get(b.key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrCacheMiss):
		return false, nil
	default:
		return false, err
	}
}

// Clear removes the cool-down flag
func (b *Blocker) Clear() error {
	err := b.cache.Delete(b.key)
	if errors.Is(err, ErrCacheMiss) {
		return nil
	}
	return err
}
