// Package github executes authenticated GET requests against the GitHub REST
// API with retry, exponential backoff and cooperative rate-limit pacing. It
// knows nothing about registry fields.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ecoregistry/internal/collection/metrics"
)

const (
	DefaultBaseURL            = "https://api.github.com"
	DefaultMaxRetries         = 3
	DefaultInitialBackoff     = time.Second
	DefaultRateLimitThreshold = 100
	DefaultMaxRateLimitWait   = time.Hour

	apiVersion = "2022-11-28"
	userAgent  = "ecoregistry-collector"
)

// Client executes GET requests against a fixed base URL. The rate-limit
// snapshot it keeps is shared by every caller of the same Client.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	limits         *rateLimiter
	maxRetries     int
	initialBackoff time.Duration
	cache          Cache
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryPolicy sets the number of retries after the first attempt and the
// first backoff delay, which doubles on each further retry.
func WithRetryPolicy(maxRetries int, initialBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if initialBackoff > 0 {
			c.initialBackoff = initialBackoff
		}
	}
}

// WithRateLimitPacing sets the remaining-quota threshold below which the
// client waits for the reset, and the longest wait it trusts.
func WithRateLimitPacing(threshold int, maxWait time.Duration) Option {
	return func(c *Client) {
		c.limits = newRateLimiter(threshold, maxWait)
	}
}

func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces the time source and the sleeper, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New constructs a Client authenticating with token. An empty token sends
// unauthenticated requests.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		token:          token,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		limits:         newRateLimiter(DefaultRateLimitThreshold, DefaultMaxRateLimitWait),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:         otel.Tracer("ecoregistry/collection/github"),
		now:            time.Now,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RateLimit returns the last known quota snapshot.
func (c *Client) RateLimit() RateLimit {
	return c.limits.snapshot()
}

// Get fetches path (appended to the base URL, query included) and decodes the
// JSON body into out when out is non-nil. It returns the quota snapshot as of
// the last response, or a classified *APIError.
func (c *Client) Get(ctx context.Context, path string, out any) (RateLimit, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return c.RateLimit(), err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return c.RateLimit(), NewAPIError(ErrorBadData, http.StatusOK, path, "decode response", err)
		}
	}
	return c.RateLimit(), nil
}

// GetFileContent fetches one file through the contents endpoint and decodes
// its base64 transport encoding. A missing file is reported as found=false,
// not as an error.
func (c *Client) GetFileContent(ctx context.Context, repo RepoRef, path string) ([]byte, bool, error) {
	var content Content
	_, err := c.Get(ctx, repo.Path("contents/"+escapePath(path)), &content)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if content.Type != "" && content.Type != "file" {
		return nil, false, nil
	}
	if content.Encoding != "base64" {
		return []byte(content.Content), true, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.NewReplacer("\n", "", "\r", "").Replace(content.Content))
	if err != nil {
		return nil, false, NewAPIError(ErrorBadData, http.StatusOK, path, "decode base64 content", err)
	}
	return decoded, true, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if body, ok := c.cached(ctx, path); ok {
		return body, nil
	}

	attempt := 0
	operation := func() ([]byte, error) {
		defer func() { attempt++ }()
		if err := c.pace(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		body, err := c.attempt(ctx, path, attempt)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, delay time.Duration) {
		c.logger.InfoContext(ctx, "retrying github request",
			"path", path,
			"attempt", attempt+1,
			"backoff", delay,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.IncrementRetries()
		}
	}

	body, err := backoff.RetryNotifyWithTimerAndData(operation, c.retryPolicy(ctx), notify, &sleepTimer{ctx: ctx, sleep: c.sleep})
	if err != nil {
		return nil, err
	}
	c.store(ctx, path, body)
	return body, nil
}

// retryPolicy doubles the delay from initialBackoff with no jitter and stops
// after maxRetries retries.
func (c *Client) retryPolicy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.initialBackoff),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(c.initialBackoff<<max(c.maxRetries, 0)),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(c.maxRetries, 0))), ctx)
}

// sleepTimer drives backoff waits through the client's sleeper so tests can
// record them without real delays.
type sleepTimer struct {
	ctx   context.Context
	sleep func(ctx context.Context, d time.Duration) error
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	_ = t.sleep(t.ctx, d)
	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}

// pace sleeps until the quota resets when the remaining count is low.
func (c *Client) pace(ctx context.Context) error {
	wait := c.limits.pacingWait(c.now())
	if wait <= 0 {
		return nil
	}
	snap := c.limits.snapshot()
	c.logger.WarnContext(ctx, "github rate limit low, waiting for reset",
		"remaining", snap.Remaining,
		"reset", snap.Reset,
		"wait", wait,
	)
	if c.metrics != nil {
		c.metrics.ObserveRateLimitWait(wait)
	}
	return c.sleep(ctx, wait)
}

func (c *Client) attempt(ctx context.Context, path string, attempt int) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "github.get", trace.WithAttributes(
		attribute.String("github.path", path),
		attribute.Int("github.attempt", attempt+1),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, NewAPIError(ErrorHTTP, 0, path, "build request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.observe("network", start)
		return nil, NewAPIError(ErrorNetwork, 0, path, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.limits.update(resp.Header)
	if c.metrics != nil {
		if snap := c.limits.snapshot(); snap.Known {
			c.metrics.SetRateLimitRemaining(snap.Remaining)
		}
	}
	c.observe(strconv.Itoa(resp.StatusCode/100)+"xx", start)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, NewAPIError(ErrorNetwork, resp.StatusCode, path, "read response body", readErr)
		}
		return body, nil
	}

	apiErr := c.classify(resp.StatusCode, path, body)
	span.SetStatus(codes.Error, string(apiErr.Category))
	return nil, apiErr
}

func (c *Client) classify(status int, path string, body []byte) *APIError {
	message := apiMessage(body, status)
	switch {
	case status == http.StatusNotFound:
		return NewAPIError(ErrorNotFound, status, path, message, nil)
	case status == http.StatusForbidden && c.limits.exhausted():
		return NewAPIError(ErrorRateLimited, status, path, message, nil)
	case status == http.StatusForbidden:
		return NewAPIError(ErrorForbidden, status, path, message, nil)
	case status == http.StatusConflict:
		return NewAPIError(ErrorConflict, status, path, message, nil)
	case status >= 500:
		return NewAPIError(ErrorServer, status, path, message, nil)
	default:
		return NewAPIError(ErrorHTTP, status, path, message, nil)
	}
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(status, c.now().Sub(start))
	}
}

func (c *Client) cached(ctx context.Context, path string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, c.baseURL+path)
	if err != nil {
		c.logger.WarnContext(ctx, "github cache read failed", "path", path, "error", err)
		return nil, false
	}
	if c.metrics != nil {
		if ok {
			c.metrics.RecordCacheHit()
		} else {
			c.metrics.RecordCacheMiss()
		}
	}
	return body, ok
}

func (c *Client) store(ctx context.Context, path string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, c.baseURL+path, body); err != nil {
		c.logger.WarnContext(ctx, "github cache write failed", "path", path, "error", err)
	}
}

// apiMessage extracts the "message" field GitHub puts in error bodies.
func apiMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}

// escapePath escapes each segment of a repository file path, keeping the
// separators.
func escapePath(p string) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
