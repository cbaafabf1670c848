package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"fediwall/internal/domain"
	"fediwall/internal/mastodon"
)

// AccountResolver maps a handle to its server-local account.
type AccountResolver interface {
	ResolveLocalUser(ctx context.Context, user, server string) (*domain.Account, error)
}

// Executor runs tasks against remote servers.
type Executor struct {
	fetcher  mastodon.Fetcher
	resolver AccountResolver
}

// NewExecutor wires a fetcher and resolver.
func NewExecutor(fetcher mastodon.Fetcher, resolver AccountResolver) *Executor {
	return &Executor{fetcher: fetcher, resolver: resolver}
}

// Run executes t and returns the raw statuses in server order. Account
// tasks resolve the handle first; an unknown handle, or a bot account when
// t.SkipBotAccounts is set, yields no statuses and no request.
func (e *Executor) Run(ctx context.Context, t Task) ([]domain.Status, error) {
	path := t.Path

	if t.Kind == KindAccount {
		account, err := e.resolver.ResolveLocalUser(ctx, t.User, t.Domain)
		if mastodon.IsAccountNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if account.ID == "" || (account.Bot && t.SkipBotAccounts) {
			return nil, nil
		}
		path = fmt.Sprintf(t.Path, url.PathEscape(account.ID))
	}

	var statuses []domain.Status
	if err := e.fetcher.FetchJSON(ctx, t.Domain, path, t.Query, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}
