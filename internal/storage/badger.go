package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"fediwall/internal/domain"
)

// BadgerAccountCache implements AccountCache on top of BadgerDB. With an
// empty path it runs fully in memory, which keeps the cache process-scoped.
type BadgerAccountCache struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ AccountCache = (*BadgerAccountCache)(nil)

// NewBadgerAccountCache opens a BadgerDB at dbPath, or an in-memory instance
// when dbPath is empty.
func NewBadgerAccountCache(dbPath string, logger logrus.FieldLogger) (*BadgerAccountCache, error) {
	opts := badger.DefaultOptions(dbPath)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %q: %w", dbPath, err)
	}
	logger.WithField("in_memory", dbPath == "").Info("BadgerDB account cache opened")

	return &BadgerAccountCache{
		db:  db,
		log: logger.WithField("component", "account_cache"),
	}, nil
}

// Close closes the BadgerDB database.
func (r *BadgerAccountCache) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Debug("BadgerDB closed")
	return nil
}

// accountKey formats the storage key for a handle.
// Format: account:{user@domain}
func accountKey(key string) []byte {
	return []byte("account:" + key)
}

// Get looks up a cached handle.
func (r *BadgerAccountCache) Get(ctx context.Context, key string) (domain.CachedAccount, bool, error) {
	var entry domain.CachedAccount
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.CachedAccount{}, false, nil
	}
	if err != nil {
		r.log.WithError(err).WithField("key", key).Error("Failed to read cached account")
		return domain.CachedAccount{}, false, fmt.Errorf("failed to read cached account %s: %w", key, err)
	}
	return entry, true, nil
}

// Put stores or overwrites a cached handle.
func (r *BadgerAccountCache) Put(ctx context.Context, key string, entry domain.CachedAccount) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached account: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(accountKey(key), raw))
	})
	if err != nil {
		r.log.WithError(err).WithField("key", key).Error("Failed to cache account")
		return fmt.Errorf("failed to cache account %s: %w", key, err)
	}

	r.log.WithFields(logrus.Fields{
		"key":       key,
		"not_found": entry.NotFound,
	}).Debug("Account cached")
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
