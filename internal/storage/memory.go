package storage

import (
	"context"

	"github.com/patrickmn/go-cache"

	"fediwall/internal/domain"
)

// MemoryAccountCache keeps entries in process memory without expiry.
type MemoryAccountCache struct {
	cache *cache.Cache
}

var _ AccountCache = (*MemoryAccountCache)(nil)

// NewMemoryAccountCache creates an empty cache. No janitor goroutine is
// started since nothing ever expires.
func NewMemoryAccountCache() *MemoryAccountCache {
	return &MemoryAccountCache{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryAccountCache) Get(_ context.Context, key string) (domain.CachedAccount, bool, error) {
	x, found := m.cache.Get(key)
	if !found {
		return domain.CachedAccount{}, false, nil
	}
	return x.(domain.CachedAccount), true, nil
}

func (m *MemoryAccountCache) Put(_ context.Context, key string, entry domain.CachedAccount) error {
	m.cache.Set(key, entry, cache.NoExpiration)
	return nil
}

// Len returns the number of cached handles.
func (m *MemoryAccountCache) Len() int {
	return m.cache.ItemCount()
}

func (m *MemoryAccountCache) Close() error {
	m.cache.Flush()
	return nil
}
