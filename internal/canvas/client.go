// Package canvas is a read-only client for the Canvas LMS REST API.
//
// The client owns the three concerns every extraction script used to
// duplicate: bearer auth, Link-header pagination, and staying under the
// API quota. Concurrent calls are bounded by a slot semaphore; each
// response's X-Rate-Limit-Remaining feeds a proportional throttle so a
// long extraction never trips the hard 403.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"canvaslytics/internal/config"
)

const (
	maxBodyBytes = 10 << 20 // 10MB cap per response body
	userAgent    = "canvaslytics/1.0"
)

// Client is a rate-limit-aware Canvas API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	hc         *http.Client
	perPage    int
	maxRetries int
	quotaFloor float64
	log        *zap.Logger

	// slots bounds concurrent in-flight requests.
	slots chan struct{}

	// Quota state from the most recent response.
	mu           sync.Mutex
	remaining    float64
	costConsumed float64

	totalCalls     int64
	totalRetries   int64
	throttleSleeps int64
}

// Metrics is a snapshot of client activity counters.
type Metrics struct {
	TotalCalls     int64
	TotalRetries   int64
	ThrottleSleeps int64
	CostConsumed   float64
	QuotaRemaining float64
}

// New builds a client from config. The token and base URL are required.
func New(cfg config.CanvasConfig, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("canvas base_url not configured")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("canvas token not configured (set CANVAS_TOKEN)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		hc:         &http.Client{Timeout: cfg.Timeout()},
		perPage:    cfg.PerPage,
		maxRetries: cfg.MaxRetries,
		quotaFloor: cfg.QuotaFloor,
		log:        log,
		slots:      make(chan struct{}, cfg.MaxConcurrency),
		remaining:  700, // Canvas bucket size; refined by the first response
	}, nil
}

// Metrics returns a snapshot of the client's counters.
func (c *Client) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Metrics{
		TotalCalls:     atomic.LoadInt64(&c.totalCalls),
		TotalRetries:   atomic.LoadInt64(&c.totalRetries),
		ThrottleSleeps: atomic.LoadInt64(&c.throttleSleeps),
		CostConsumed:   c.costConsumed,
		QuotaRemaining: c.remaining,
	}
}

// CloseIdleConnections releases kept-alive transport connections.
func (c *Client) CloseIdleConnections() {
	c.hc.CloseIdleConnections()
}

// acquireSlot blocks until an API slot is free or ctx is done.
func (c *Client) acquireSlot(ctx context.Context) error {
	select {
	case c.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) releaseSlot() {
	<-c.slots
}

// getJSON performs a GET with retries and decodes the body into out.
// It returns the response headers so callers can follow pagination links.
func (c *Client) getJSON(ctx context.Context, rawurl string, out interface{}) (http.Header, error) {
	if err := c.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer c.releaseSlot()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&c.totalRetries, 1)
		}
		c.throttle(ctx)

		body, header, err := c.doOnce(ctx, rawurl)
		if err == nil {
			if out != nil {
				if uerr := json.Unmarshal(body, out); uerr != nil {
					return nil, fmt.Errorf("decoding %s: %w", rawurl, uerr)
				}
			}
			return header, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt == c.maxRetries {
			break
		}

		wait := backoff(attempt, retryAfter(header))
		c.log.Debug("canvas request retrying",
			zap.String("url", rawurl),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// doOnce performs a single request and records quota headers.
func (c *Client) doOnce(ctx context.Context, rawurl string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	atomic.AddInt64(&c.totalCalls, 1)
	c.recordQuota(resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.Header, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.Header, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   req.URL.Path,
			Body:       string(body),
		}
	}
	return body, resp.Header, nil
}

// recordQuota updates the throttle state from response headers.
func (c *Client) recordQuota(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := h.Get("X-Rate-Limit-Remaining"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.remaining = f
		}
	}
	if v := h.Get("X-Request-Cost"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.costConsumed += f
		}
	}
}

// throttle sleeps proportionally to the quota deficit when the bucket is
// running low. The bucket refills continuously server-side, so a short
// pause is enough to climb back over the floor.
func (c *Client) throttle(ctx context.Context) {
	c.mu.Lock()
	deficit := c.quotaFloor - c.remaining
	c.mu.Unlock()
	if deficit <= 0 {
		return
	}

	wait := time.Duration(deficit*20) * time.Millisecond
	if wait > 5*time.Second {
		wait = 5 * time.Second
	}
	atomic.AddInt64(&c.throttleSleeps, 1)
	c.log.Debug("canvas quota low, throttling",
		zap.Float64("remaining", c.quotaFloor-deficit),
		zap.Duration("wait", wait))

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

// backoff computes the wait before a retry: exponential with jitter,
// overridden by a server-provided Retry-After when longer.
func backoff(attempt int, retryAfter time.Duration) time.Duration {
	wait := time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	wait += time.Duration(rand.Int63n(int64(250 * time.Millisecond)))
	if retryAfter > wait {
		wait = retryAfter
	}
	return wait
}

// retryAfter parses a Retry-After header (seconds form) if present.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}

// endpoint builds an absolute API URL with query values.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/api/v1" + path
	if query == nil {
		query = url.Values{}
	}
	if query.Get("per_page") == "" {
		query.Set("per_page", strconv.Itoa(c.perPage))
	}
	return u + "?" + query.Encode()
}
