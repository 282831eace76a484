package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryBackend keeps entries in process, bounded by total value size.
type MemoryBackend struct {
	cache *ristretto.Cache[string, []byte]
}

func NewMemoryBackend(maxBytes int64) (*MemoryBackend, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, unavailable("init", err)
	}
	return &MemoryBackend{cache: c}, nil
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("get", err)
	}
	v, ok := m.cache.Get(key)
	return v, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set", err)
	}
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	// Sets are buffered; wait so the entry is readable on return.
	m.cache.Wait()
	return nil
}

func (m *MemoryBackend) Close() error {
	m.cache.Close()
	return nil
}
