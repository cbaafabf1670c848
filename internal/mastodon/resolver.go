package mastodon

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"fediwall/internal/domain"
	"fediwall/internal/storage"
)

const lookupPath = "api/v1/accounts/lookup"

// Resolver maps a handle to the account id local to a given server.
// Results live in an AccountCache shared by every fetch cycle. A 404 is a
// definitive answer and cached as not-found; other failures are not cached.
type Resolver struct {
	fetcher Fetcher
	cache   storage.AccountCache
	group   singleflight.Group
	log     logrus.FieldLogger
}

// NewResolver creates a resolver backed by cache.
func NewResolver(fetcher Fetcher, cache storage.AccountCache, logger logrus.FieldLogger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   cache,
		log:     logger.WithField("component", "resolver"),
	}
}

// ResolveLocalUser returns the account known to server for user. It returns
// ErrAccountNotFound if the server does not know the handle. Concurrent
// lookups of the same handle share one request.
func (r *Resolver) ResolveLocalUser(ctx context.Context, user, server string) (*domain.Account, error) {
	key := user + "@" + server

	entry, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.WithError(err).WithField("handle", key).Warn("Account cache read failed, resolving remotely")
	} else if found {
		return entryResult(entry)
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(ctx, key, user, server)
	})
	if err != nil {
		return nil, err
	}
	return entryResult(v.(domain.CachedAccount))
}

func (r *Resolver) lookup(ctx context.Context, key, user, server string) (domain.CachedAccount, error) {
	log := r.log.WithField("handle", key)

	var account domain.Account
	err := r.fetcher.FetchJSON(ctx, server, lookupPath, url.Values{"acct": {user}}, &account)
	var entry domain.CachedAccount
	switch {
	case err == nil:
		entry = domain.CachedAccount{Account: &account}
	case IsNotFound(err):
		log.Info("Account not found")
		entry = domain.CachedAccount{NotFound: true}
	default:
		return domain.CachedAccount{}, fmt.Errorf("resolve %s: %w", key, err)
	}

	if err := r.cache.Put(ctx, key, entry); err != nil {
		log.WithError(err).Warn("Failed to cache account")
	}
	return entry, nil
}

func entryResult(entry domain.CachedAccount) (*domain.Account, error) {
	if entry.NotFound || entry.Account == nil {
		return nil, ErrAccountNotFound
	}
	account := *entry.Account
	return &account, nil
}

// IsAccountNotFound reports whether err means the handle does not exist.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
