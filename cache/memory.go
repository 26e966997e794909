package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// Memory is an in-memory cache backend using otter. Entry expiry is fixed
// at construction: the per-read lifetime hint is ignored, as otter owns
// expiry from the moment an entry is created.
type Memory struct {
	cache   *otter.Cache[string, string]
	ttl     time.Duration
	counter *stats.Counter
}

// NewMemory creates a new in-memory cache with the specified TTL and
// maximum entry count.
func NewMemory(ttl time.Duration, maxEntries int) (*Memory, error) {
	counter := stats.NewCounter()
	cache := otter.Must(&otter.Options[string, string]{
		MaximumSize:      maxEntries,
		StatsRecorder:    counter,
		ExpiryCalculator: otter.ExpiryCreating[string, string](ttl),
	})

	return &Memory{
		cache:   cache,
		ttl:     ttl,
		counter: counter,
	}, nil
}

// Get retrieves a token from the cache.
// Returns the token, whether it was found, and any error.
func (m *Memory) Get(ctx context.Context, key string, _ time.Duration) (string, bool, error) {
	entry, ok := m.cache.GetEntry(key)
	if !ok {
		return "", false, nil
	}

	return entry.Value, true, nil
}

// Set stores a token in the cache.
func (m *Memory) Set(ctx context.Context, key string, value string) error {
	m.cache.Set(key, value)
	return nil
}

// Invalidate removes a token from the cache.
func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.cache.Invalidate(key)
	return nil
}

// Close releases resources held by the cache. The in-memory backend has
// none, but the method keeps backends interchangeable.
func (m *Memory) Close() error {
	return nil
}
