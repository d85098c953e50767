// Package apiclient implements the HTTP client framework for supplier
// APIs: session management, rate limit handling, retries with jittered
// exponential backoff and price caching with stale fallback.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	maxWait         = time.Minute
)

// Authenticator owns a supplier API's authentication scheme. Authenticate
// establishes a session and reports when it expires; Apply attaches the
// session to an outgoing request.
type Authenticator interface {
	Authenticate(ctx context.Context, hc *http.Client) (time.Time, error)
	Apply(req *http.Request)
}

// BaseClient is the shared HTTP machinery under every supplier client.
type BaseClient struct {
	hc           *http.Client
	baseURL      string
	supplierCode string
	auth         Authenticator
	limiter      *rate.Limiter
	maxAttempts  int
	backoffBase  time.Duration
	log          *logger.Logger

	mu        sync.Mutex
	expiresAt time.Time
	rateInfo  *RateLimitInfo

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a BaseClient.
type ClientOption func(*BaseClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *BaseClient) { c.hc = hc }
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *BaseClient) { c.hc.Timeout = d }
}

// WithMaxAttempts sets the total attempt budget for retryable failures.
func WithMaxAttempts(n int) ClientOption {
	return func(c *BaseClient) { c.maxAttempts = n }
}

// WithBackoffBase sets the base delay for the exponential backoff.
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *BaseClient) { c.backoffBase = d }
}

// WithRequestRate paces outgoing requests client-side, independent of the
// server-reported limits.
func WithRequestRate(perSecond float64, burst int) ClientOption {
	return func(c *BaseClient) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewBaseClient creates the shared client for one supplier API.
func NewBaseClient(supplierCode, baseURL string, auth Authenticator, log *logger.Logger, opts ...ClientOption) *BaseClient {
	c := &BaseClient{
		hc:           &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		supplierCode: supplierCode,
		auth:         auth,
		limiter:      rate.NewLimiter(rate.Inf, 1),
		maxAttempts:  defaultAttempts,
		backoffBase:  defaultBackoff,
		log:          log,
		now:          time.Now,
		sleep:        sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Authenticate establishes a fresh session regardless of current state.
func (c *BaseClient) Authenticate(ctx context.Context) error {
	expiresAt, err := c.auth.Authenticate(ctx, c.hc)
	if err != nil {
		if isTimeout(err) {
			return apperr.Timeout("authentication timed out", err)
		}
		return apperr.Auth(fmt.Sprintf("authentication with %s failed", c.supplierCode))
	}

	c.mu.Lock()
	c.expiresAt = expiresAt
	c.mu.Unlock()
	return nil
}

// IsAuthenticated reports whether the current session is still valid.
func (c *BaseClient) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.expiresAt.IsZero() && c.now().Before(c.expiresAt)
}

// EnsureAuthenticated authenticates only when no valid session exists.
func (c *BaseClient) EnsureAuthenticated(ctx context.Context) error {
	if c.IsAuthenticated() {
		return nil
	}
	return c.Authenticate(ctx)
}

// RateLimit returns the most recently observed server rate limit state,
// or nil before the first response carrying the headers.
func (c *BaseClient) RateLimit() *RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateInfo
}

// Do executes one API call. The request is rebuilt per attempt so body
// readers never go stale. Timeouts surface immediately; 401 triggers a
// single re-authentication; 429 and 5xx retry with backoff until the
// attempt budget runs out.
func (c *BaseClient) Do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if err := c.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	reauthed := false
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperr.Timeout("rate limiter wait canceled", err)
		}
		if err := c.waitForWindow(ctx); err != nil {
			return nil, err
		}

		resp, respBody, err := c.attempt(ctx, method, path, query, body)
		if err != nil {
			if isTimeout(err) {
				return nil, apperr.Timeout(fmt.Sprintf("%s %s timed out", method, path), err)
			}
			lastErr = apperr.Transient(fmt.Sprintf("%s %s failed", method, path), err)
			if err := c.backoffWait(ctx, attempt, lastErr); err != nil {
				return nil, err
			}
			continue
		}

		c.observeRateLimit(resp.Header)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return respBody, nil

		case resp.StatusCode == http.StatusUnauthorized:
			if reauthed {
				return nil, apperr.Auth(fmt.Sprintf("%s rejected credentials", c.supplierCode))
			}
			reauthed = true
			if err := c.Authenticate(ctx); err != nil {
				return nil, err
			}
			attempt--

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = apperr.RateLimited(fmt.Sprintf("%s rate limited %s %s", c.supplierCode, method, path))
			wait, ok := retryAfter(resp.Header, c.now())
			if !ok {
				wait = c.backoff(attempt)
			}
			if wait > maxWait {
				wait = maxWait
			}
			c.log.RateLimitWait(c.supplierCode, wait.Milliseconds())
			if err := c.sleep(ctx, wait); err != nil {
				return nil, apperr.Timeout("rate limit wait canceled", err)
			}

		case resp.StatusCode == http.StatusNotFound:
			return nil, apperr.NotFound(fmt.Sprintf("%s %s not found", method, path))

		case resp.StatusCode >= 500:
			lastErr = apperr.Transient(fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), nil)
			if err := c.backoffWait(ctx, attempt, lastErr); err != nil {
				return nil, err
			}

		default:
			return nil, apperr.Internal(fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode))
		}
	}

	if lastErr == nil {
		lastErr = apperr.Transient(fmt.Sprintf("%s %s exhausted retries", method, path), nil)
	}
	return nil, lastErr
}

func (c *BaseClient) attempt(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// waitForWindow sleeps until the server's rate limit window resets when
// the previous response reported zero remaining requests. The wait is
// capped at one minute.
func (c *BaseClient) waitForWindow(ctx context.Context) error {
	c.mu.Lock()
	info := c.rateInfo
	c.mu.Unlock()

	if info == nil || info.Remaining > 0 {
		return nil
	}

	wait := info.Reset.Sub(c.now())
	if wait <= 0 {
		return nil
	}
	if wait > maxWait {
		wait = maxWait
	}

	c.log.RateLimitWait(c.supplierCode, wait.Milliseconds())
	if err := c.sleep(ctx, wait); err != nil {
		return apperr.Timeout("rate limit wait canceled", err)
	}

	// The window has reset; forget the exhausted state.
	c.mu.Lock()
	c.rateInfo = nil
	c.mu.Unlock()
	return nil
}

func (c *BaseClient) observeRateLimit(h http.Header) {
	info := parseRateLimit(h, c.now())
	if info == nil {
		return
	}
	c.mu.Lock()
	c.rateInfo = info
	c.mu.Unlock()
}

func (c *BaseClient) backoffWait(ctx context.Context, attempt int, cause error) error {
	if attempt >= c.maxAttempts-1 {
		return nil
	}
	wait := c.backoff(attempt)
	c.log.RetryAttempt(fmt.Sprintf("apiclient.%s", c.supplierCode), attempt+1, wait.Milliseconds(), cause)
	if err := c.sleep(ctx, wait); err != nil {
		return apperr.Timeout("retry backoff canceled", err)
	}
	return nil
}

// backoff computes base*2^attempt plus up to one base of jitter, capped
// at one minute.
func (c *BaseClient) backoff(attempt int) time.Duration {
	wait := c.backoffBase << attempt
	wait += time.Duration(rand.Int63n(int64(c.backoffBase)))
	if wait > maxWait {
		return maxWait
	}
	return wait
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
