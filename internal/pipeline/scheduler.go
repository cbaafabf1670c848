package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fediwall/internal/content"
	"fediwall/internal/domain"
	"fediwall/internal/metrics"
)

// DefaultTaskJitter bounds the random pause before each queued task.
const DefaultTaskJitter = 500 * time.Millisecond

// TaskRunner executes a single task.
type TaskRunner interface {
	Run(ctx context.Context, t Task) ([]domain.Status, error)
}

// TaskError records a failed task in the progress error list.
type TaskError struct {
	Task Task
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Progress is a snapshot of a running fetch cycle. Posts is the live store,
// shared by reference so late readers see partial results.
type Progress struct {
	Total    int
	Started  int
	Finished int
	Errors   []error
	Posts    *Store
}

// Done reports whether every task has finished.
func (p Progress) Done() bool {
	return p.Finished >= p.Total
}

// ProgressFunc receives progress snapshots. Calls are serialized.
type ProgressFunc func(Progress)

// Scheduler runs a plan with one worker per domain. Tasks of the same domain
// run one after another; domains run in parallel. Failures never cancel
// other tasks.
type Scheduler struct {
	runner  TaskRunner
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	jitter  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewScheduler creates a scheduler. jitter bounds the random delay before
// each task after the first in a domain queue; zero disables it.
func NewScheduler(runner TaskRunner, jitter time.Duration, m *metrics.Metrics, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		log:     logger.WithField("component", "scheduler"),
		metrics: m,
		jitter:  jitter,
		sleep:   sleepContext,
	}
}

// RunAll executes every task of plan and returns the merged posts once all
// domain workers are done. Task failures end up in the progress error list.
// When ctx ends early, tasks that did not complete are recorded as failed
// with the context error.
func (s *Scheduler) RunAll(ctx context.Context, plan Plan, cfg domain.WallConfig, onProgress ProgressFunc) []domain.Post {
	store := NewStore()
	tr := &tracker{
		progress: Progress{Total: plan.Total(), Posts: store},
		notify:   onProgress,
	}

	w := &worker{
		Scheduler:  s,
		filter:     content.NewFilter(cfg),
		normalizer: content.NewNormalizer(cfg),
		store:      store,
		tracker:    tr,
	}

	var g errgroup.Group
	for _, d := range plan.Domains {
		tasks := plan.Tasks[d]
		g.Go(func() error {
			w.runDomain(ctx, d, tasks)
			return nil
		})
	}
	_ = g.Wait()

	tr.emit()
	return store.List()
}

// delay returns a random pause, growing with the task's position in its
// queue but never above the jitter bound.
func (s *Scheduler) delay(pos, n int) time.Duration {
	if s.jitter <= 0 || pos == 0 || n == 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(s.jitter))) * time.Duration(pos) / time.Duration(n)
}

type worker struct {
	*Scheduler
	filter     *content.Filter
	normalizer *content.Normalizer
	store      *Store
	tracker    *tracker
}

func (w *worker) runDomain(ctx context.Context, d string, tasks []Task) {
	log := w.log.WithField("domain", d)
	log.WithField("tasks", len(tasks)).Debug("Domain worker started")

	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			w.tracker.skip(&TaskError{Task: t, Err: err})
			continue
		}
		if err := w.sleep(ctx, w.delay(i, len(tasks))); err != nil {
			w.tracker.skip(&TaskError{Task: t, Err: err})
			continue
		}

		w.tracker.start()
		accepted, err := w.runTask(ctx, t)
		if err != nil {
			log.WithError(err).WithField("kind", t.Kind).Warn("Update task failed")
			w.metrics.ObserveTaskFailure(d, string(t.Kind))
			w.tracker.finish(&TaskError{Task: t, Err: err})
			continue
		}
		log.WithFields(logrus.Fields{
			"kind":     t.Kind,
			"accepted": accepted,
		}).Debug("Task finished")
		w.tracker.finish(nil)
	}
}

// runTask fetches, filters, normalizes and stores. It returns the number of
// accepted statuses.
func (w *worker) runTask(ctx context.Context, t Task) (accepted int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	statuses, err := w.runner.Run(ctx, t)
	if err != nil {
		return 0, err
	}
	for i := range statuses {
		if !w.filter.Accepts(&statuses[i]) {
			continue
		}
		w.store.Put(w.normalizer.Normalize(t.Domain, &statuses[i]))
		accepted++
	}
	return accepted, nil
}

// tracker owns the progress counters and serializes callbacks.
type tracker struct {
	mu       sync.Mutex
	progress Progress
	notify   ProgressFunc
}

func (t *tracker) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Started++
	t.emitLocked()
}

func (t *tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Finished++
	if err != nil {
		t.progress.Errors = append(t.progress.Errors, err)
	}
	t.emitLocked()
}

// skip accounts for a task that never ran.
func (t *tracker) skip(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.Started++
	t.progress.Finished++
	t.progress.Errors = append(t.progress.Errors, err)
	t.emitLocked()
}

func (t *tracker) emit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked()
}

func (t *tracker) emitLocked() {
	if t.notify == nil {
		return
	}
	snap := t.progress
	snap.Errors = append([]error(nil), t.progress.Errors...)
	t.notify(snap)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
