// Package metrics holds the prometheus collectors shared by the fetch client
// and the domain scheduler. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fediwall"

// Metrics groups every collector the aggregation pipeline reports to.
type Metrics struct {
	Requests       *prometheus.CounterVec
	RateLimitWaits *prometheus.CounterVec
	RateLimitSleep prometheus.Histogram
	TaskFailures   *prometheus.CounterVec
	PostsCollected prometheus.Gauge
	CycleDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg. Passing nil
// registers nothing, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests issued against remote servers, by domain and status code.",
		}, []string{"domain", "status"}),
		RateLimitWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Times a request was suspended until a rate limit reset.",
		}, []string{"domain"}),
		RateLimitSleep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Length of rate limit waits.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 300},
		}),
		TaskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Fetch tasks that failed, by domain and kind.",
		}, []string{"domain", "kind"}),
		PostsCollected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "posts_collected",
			Help:      "Posts in the store after the last completed cycle.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall clock time of a full fetch cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.RateLimitWaits, m.RateLimitSleep, m.TaskFailures, m.PostsCollected, m.CycleDuration)
	}
	return m
}

func (m *Metrics) ObserveRequest(domain string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(domain, label).Inc()
}

func (m *Metrics) ObserveRateLimitWait(domain string, wait time.Duration) {
	if m == nil {
		return
	}
	m.RateLimitWaits.WithLabelValues(domain).Inc()
	m.RateLimitSleep.Observe(wait.Seconds())
}

func (m *Metrics) ObserveTaskFailure(domain, kind string) {
	if m == nil {
		return
	}
	m.TaskFailures.WithLabelValues(domain, kind).Inc()
}

func (m *Metrics) ObserveCycle(posts int, took time.Duration) {
	if m == nil {
		return
	}
	m.PostsCollected.Set(float64(posts))
	m.CycleDuration.Observe(took.Seconds())
}
