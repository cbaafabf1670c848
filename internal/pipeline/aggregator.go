package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"fediwall/internal/domain"
	"fediwall/internal/metrics"
)

// Aggregator is the entry point of a fetch cycle: it plans the tasks for a
// wall configuration, runs them and returns the merged posts.
type Aggregator struct {
	scheduler *Scheduler
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

// NewAggregator creates an aggregator. A positive timeout bounds every cycle;
// tasks still pending when it expires are reported as failed.
func NewAggregator(scheduler *Scheduler, timeout time.Duration, m *metrics.Metrics, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		scheduler: scheduler,
		timeout:   timeout,
		metrics:   m,
		log:       logger.WithField("component", "aggregator"),
	}
}

// FetchPosts runs one fetch cycle for cfg. It never fails: per-task errors
// are delivered through onProgress, and the returned posts are whatever was
// collected. onProgress may be nil.
func (a *Aggregator) FetchPosts(ctx context.Context, cfg domain.WallConfig, onProgress ProgressFunc) []domain.Post {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	plan := PlanTasks(cfg)
	a.log.WithFields(logrus.Fields{
		"domains": len(plan.Domains),
		"tasks":   plan.Total(),
	}).Info("Starting fetch cycle")

	var failed int
	track := func(p Progress) {
		failed = len(p.Errors)
		if onProgress != nil {
			onProgress(p)
		}
	}

	start := time.Now()
	posts := a.scheduler.RunAll(ctx, plan, cfg, track)
	took := time.Since(start)

	a.metrics.ObserveCycle(len(posts), took)
	a.log.WithFields(logrus.Fields{
		"posts":    len(posts),
		"failed":   failed,
		"duration": took.String(),
	}).Info("Fetch cycle finished")

	return posts
}
