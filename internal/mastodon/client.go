package mastodon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fediwall/internal/metrics"
)

const (
	// MaxRetries is the number of extra attempts after the first request.
	MaxRetries = 3

	// RateLimitLeeway is added on top of the server-announced reset time.
	RateLimitLeeway = time.Second

	// defaultResetWait is assumed when a throttled response carries no reset time.
	defaultResetWait = 10 * time.Second

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
	userAgent      = "fediwall/1.0"
)

// Fetcher issues a single JSON GET request against a remote server.
type Fetcher interface {
	FetchJSON(ctx context.Context, domain, path string, query url.Values, out any) error
}

// Client implements Fetcher against the Mastodon REST API family. It waits
// out rate limits announced through X-RateLimit-* headers and retries.
type Client struct {
	httpClient *http.Client
	scheme     string
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
	maxBody    int64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Fetcher = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithScheme overrides the URL scheme, "https" by default.
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// WithMetrics reports requests and rate limit waits to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a fetch client.
func NewClient(logger logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		scheme:     "https",
		maxBody:    maxBodyBytes,
		log:        logger.WithField("component", "mastodon_client"),
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildURL joins domain, path and query. An empty query adds no "?".
func (c *Client) BuildURL(domain, path string, query url.Values) string {
	u := c.scheme + "://" + domain + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// FetchJSON requests domain/path?query and decodes the JSON body into out.
//
// A non-2xx response with X-RateLimit-Remaining: 0 suspends the caller until
// the announced reset (plus RateLimitLeeway) and retries, at most MaxRetries
// times. Any other non-2xx response is final. Final failures are returned as
// *FetchError, transport failures as *NetworkError.
func (c *Client) FetchJSON(ctx context.Context, domain, path string, query url.Values, out any) error {
	target := c.BuildURL(domain, path, query)
	log := c.log.WithFields(logrus.Fields{
		"domain": domain,
		"path":   path,
	})

	var (
		status int
		header http.Header
		body   []byte
	)
	for attempt := 0; ; attempt++ {
		var err error
		status, header, body, err = c.do(ctx, target)
		c.metrics.ObserveRequest(domain, status)
		if errors.Is(err, errBodyTooLarge) {
			log.WithField("status", status).Warn("Response body too large")
			return &FetchError{URL: target, Status: status, Message: err.Error(), malformed: true}
		}
		if err != nil {
			return &NetworkError{URL: target, Err: err}
		}
		if isSuccess(status) || attempt >= MaxRetries {
			break
		}

		wait, limited := c.rateLimitWait(header)
		if !limited {
			break
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Info("Rate limited, waiting for reset")
		c.metrics.ObserveRateLimitWait(domain, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return fmt.Errorf("waiting for rate limit reset on %s: %w", domain, err)
		}
	}

	if err := decodeResponse(target, status, body, out); err != nil {
		log.WithError(err).WithField("status", status).Warn("Fetch failed")
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, target string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("%w: over %d bytes", errBodyTooLarge, c.maxBody)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// rateLimitWait computes max(0, reset - reference) + leeway when the response
// says the rate limit is exhausted. The reference time is the server's Date
// header so clock skew between us and the server does not matter.
func (c *Client) rateLimitWait(header http.Header) (time.Duration, bool) {
	if header.Get("X-RateLimit-Remaining") != "0" {
		return 0, false
	}

	reference := c.now()
	if date := header.Get("Date"); date != "" {
		if t, err := http.ParseTime(date); err == nil {
			reference = t
		}
	}

	reset, ok := parseResetTime(header.Get("X-RateLimit-Reset"))
	if !ok {
		reset = reference.Add(defaultResetWait)
	}

	wait := reset.Sub(reference)
	if wait < 0 {
		wait = 0
	}
	return wait + RateLimitLeeway, true
}

func parseResetTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	if t, err := http.ParseTime(value); err == nil {
		return t, true
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

// decodeResponse turns a final response into either a decoded value or a
// *FetchError. Mastodon reports application errors as {"error": "..."}.
func decodeResponse(target string, status int, body []byte, out any) error {
	if !json.Valid(body) {
		return &FetchError{URL: target, Status: status, Body: string(body), malformed: true}
	}

	var probe struct {
		Error string `json:"error"`
	}
	// Arrays do not decode into the probe; that is fine, they carry no error.
	_ = json.Unmarshal(body, &probe)

	if !isSuccess(status) || probe.Error != "" {
		return &FetchError{URL: target, Status: status, Body: string(body), Message: probe.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{URL: target, Status: status, Body: string(body), Message: err.Error(), malformed: true}
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
