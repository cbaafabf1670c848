package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"fediwall/internal/domain"
)

// AccountCache stores resolved handles for the lifetime of the process.
// Keys are "user@domain". Entries are never evicted: handle to account id
// mappings are effectively static.
type AccountCache interface {
	// Get returns the cached entry for key and whether one exists.
	Get(ctx context.Context, key string) (domain.CachedAccount, bool, error)

	// Put stores or replaces the entry for key.
	Put(ctx context.Context, key string, entry domain.CachedAccount) error

	// Close releases resources held by the cache.
	Close() error
}

// Cache backends selectable through configuration.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// OpenAccountCache creates the cache for the configured backend. dbPath is
// only used by the badger backend; empty keeps it in memory.
func OpenAccountCache(backend, dbPath string, logger logrus.FieldLogger) (AccountCache, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryAccountCache(), nil
	case BackendBadger:
		c, err := NewBadgerAccountCache(dbPath, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown account cache backend %q", backend)
	}
}
