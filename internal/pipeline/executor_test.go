package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fediwall/internal/domain"
	"fediwall/internal/mastodon"
)

type fetchCall struct {
	domain, path string
	query        url.Values
}

// fakeFetcher answers every request with the same statuses.
type fakeFetcher struct {
	statuses []domain.Status
	err      error
	calls    []fetchCall
}

func (f *fakeFetcher) FetchJSON(_ context.Context, d, path string, query url.Values, out any) error {
	f.calls = append(f.calls, fetchCall{d, path, query})
	if f.err != nil {
		return f.err
	}
	raw, _ := json.Marshal(f.statuses)
	return json.Unmarshal(raw, out)
}

type fakeResolver struct {
	account *domain.Account
	err     error
}

func (r *fakeResolver) ResolveLocalUser(context.Context, string, string) (*domain.Account, error) {
	return r.account, r.err
}

func TestExecutor_RunsPlainTask(t *testing.T) {
	f := &fakeFetcher{statuses: []domain.Status{{ID: "1", URI: "u1"}, {ID: "2", URI: "u2"}}}
	e := NewExecutor(f, &fakeResolver{})

	q := url.Values{"limit": {"20"}}
	got, err := e.Run(context.Background(), Task{Kind: KindTrends, Domain: "a.social", Path: "api/v1/trends/statuses", Query: q})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].URI)
	require.Len(t, f.calls, 1)
	assert.Equal(t, fetchCall{"a.social", "api/v1/trends/statuses", q}, f.calls[0])
}

func TestExecutor_AccountTaskUsesResolvedID(t *testing.T) {
	f := &fakeFetcher{}
	e := NewExecutor(f, &fakeResolver{account: &domain.Account{ID: "109"}})

	_, err := e.Run(context.Background(), Task{Kind: KindAccount, Domain: "a.social", Path: accountStatusPath, User: "bob"})
	require.NoError(t, err)
	require.Len(t, f.calls, 1)
	assert.Equal(t, "api/v1/accounts/109/statuses", f.calls[0].path)
}

func TestExecutor_AccountTaskSkips(t *testing.T) {
	tests := []struct {
		name     string
		resolver *fakeResolver
		skipBots bool
	}{
		{"unknown account", &fakeResolver{err: mastodon.ErrAccountNotFound}, false},
		{"empty id", &fakeResolver{account: &domain.Account{}}, false},
		{"bot account", &fakeResolver{account: &domain.Account{ID: "1", Bot: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			got, err := NewExecutor(f, tt.resolver).Run(context.Background(),
				Task{Kind: KindAccount, Domain: "a.social", Path: accountStatusPath, User: "bob", SkipBotAccounts: tt.skipBots})
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Empty(t, f.calls)
		})
	}
}

func TestExecutor_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewExecutor(&fakeFetcher{}, &fakeResolver{err: boom}).Run(context.Background(),
		Task{Kind: KindAccount, Domain: "a.social", Path: accountStatusPath, User: "bob"})
	assert.ErrorIs(t, err, boom)

	_, err = NewExecutor(&fakeFetcher{err: boom}, &fakeResolver{}).Run(context.Background(),
		Task{Kind: KindPublic, Domain: "a.social", Path: publicTimelinePath})
	assert.ErrorIs(t, err, boom)
}
