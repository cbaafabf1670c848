package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fediwall/internal/domain"
	"fediwall/internal/metrics"
)

func TestFetchPosts(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, task Task) ([]domain.Status, error) {
		return []domain.Status{status("https://"+task.Domain+"/1", t0)}, nil
	})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	agg := NewAggregator(NewScheduler(runner, 0, m, testLogger()), 0, m, testLogger())

	cfg := wallConfig()
	cfg.Tags = []string{"cats"}

	calls := 0
	posts := agg.FetchPosts(context.Background(), cfg, func(Progress) { calls++ })

	assert.Len(t, posts, 2)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PostsCollected))
}

func TestFetchPosts_NilCallback(t *testing.T) {
	runner := runnerFunc(func(context.Context, Task) ([]domain.Status, error) { return nil, nil })
	agg := NewAggregator(NewScheduler(runner, 0, nil, testLogger()), 0, nil, testLogger())

	cfg := wallConfig()
	cfg.Tags = []string{"cats"}
	assert.Empty(t, agg.FetchPosts(context.Background(), cfg, nil))
}

func TestFetchPosts_TimeoutReportsPendingTasks(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, task Task) ([]domain.Status, error) {
		if task.Domain == "b.social" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []domain.Status{status("https://a.social/1", t0)}, nil
	})
	agg := NewAggregator(NewScheduler(runner, 0, nil, testLogger()), 50*time.Millisecond, nil, testLogger())

	cfg := wallConfig()
	cfg.Tags = []string{"cats", "dogs"}

	var last Progress
	posts := agg.FetchPosts(context.Background(), cfg, func(p Progress) { last = p })

	assert.Len(t, posts, 1)
	assert.Equal(t, 4, last.Finished)
	require.Len(t, last.Errors, 2)
	for _, err := range last.Errors {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}
