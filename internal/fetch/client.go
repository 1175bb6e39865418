// Package fetch is the resilient HTTP layer in front of the PUBG API.
//
// Every attempt first passes the shared rate limiter, transient failures are
// retried with backoff, and non-retryable answers surface immediately as typed
// errors.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/constants"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// Transport is satisfied by *fasthttp.Client.
type Transport interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Pacer gates each outbound attempt.
type Pacer interface {
	Acquire(ctx context.Context) error
}

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Timeout bounds a single attempt. Zero means constants.MetadataTimeout.
	Timeout time.Duration
}

type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// unix seconds at which the upstream window resets
	Reset int64 `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

type Stats struct {
	Requests  uint64        `json:"requests"`
	Attempts  uint64        `json:"attempts"`
	Retries   uint64        `json:"retries"`
	Failures  uint64        `json:"failures"`
	RateLimit RateLimitInfo `json:"rate_limit"`
}

type Client struct {
	transport Transport
	pacer     Pacer
	policy    Policy
	clock     clock.Clock
	logger    zerolog.Logger

	requests atomic.Uint64
	attempts atomic.Uint64
	retries  atomic.Uint64
	failures atomic.Uint64

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

// NewTransport returns the fasthttp client used in production. fasthttp's own
// idempotent retry is disabled so every attempt goes through the pacer.
func NewTransport() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:           100,
		ReadTimeout:               constants.TelemetryTimeout,
		WriteTimeout:              constants.MetadataTimeout,
		MaxIdleConnDuration:       1 * time.Minute,
		MaxIdemponentCallAttempts: 1,
		MaxResponseBodySize:       256 << 20,
	}
}

func New(transport Transport, pacer Pacer, policy Policy, clk clock.Clock, logger zerolog.Logger) *Client {
	return &Client{
		transport: transport,
		pacer:     pacer,
		policy:    policy,
		clock:     clk,
		logger:    logger,
	}
}

func (c *Client) Policy() Policy {
	return c.policy
}

func (c *Client) Stats() Stats {
	c.rateLimitMu.RLock()
	rl := c.rateLimit
	c.rateLimitMu.RUnlock()

	return Stats{
		Requests:  c.requests.Load(),
		Attempts:  c.attempts.Load(),
		Retries:   c.retries.Load(),
		Failures:  c.failures.Load(),
		RateLimit: rl,
	}
}

func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	c.requests.Add(1)

	var (
		attempt     int
		lastErr     error
		exhausted   bool
		interrupted error
		out         *Response
	)

	// The wait happens on the injected clock; go-retry only sees zero delays.
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempt > c.policy.MaxRetries {
			exhausted = true
			return 0, true
		}
		wait := c.policy.Delay(attempt-1, lastErr)
		c.retries.Add(1)
		c.logger.Warn().
			Err(lastErr).
			Str("url", r.URL).
			Int("attempt", attempt).
			Str("category", c.policy.Classify(lastErr).String()).
			Dur("wait", wait).
			Msg("upstream request failed, retrying")
		if err := c.clock.SleepContext(ctx, wait); err != nil {
			interrupted = err
			return 0, true
		}
		return 0, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := c.attempt(ctx, r)
		if err == nil {
			out = resp
			return nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if c.policy.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		out.Attempts = attempt
		return out, nil
	}

	c.failures.Add(1)
	if interrupted != nil {
		err = interrupted
	} else if exhausted {
		err = &TransportExhaustedError{
			Attempts: attempt,
			Category: c.policy.Classify(lastErr),
			Last:     lastErr,
		}
	}
	c.logger.Debug().Err(err).Str("url", r.URL).Int("attempts", attempt).Msg("upstream request gave up")
	return nil, err
}

func (c *Client) attempt(ctx context.Context, r Request) (*Response, error) {
	if err := c.pacer.Acquire(ctx); err != nil {
		return nil, err
	}
	c.attempts.Add(1)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	method := r.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	req.SetRequestURI(r.URL)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = constants.MetadataTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.transport.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", r.URL, err)
	}
	c.updateRateLimit(resp)

	status := resp.StatusCode()
	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", r.URL, err)
	}
	body = append([]byte(nil), body...)

	c.logger.Debug().
		Str("url", r.URL).
		Int("status", status).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("upstream response")

	switch {
	case status >= 200 && status < 300:
		return &Response{StatusCode: status, Body: body}, nil
	case status == fasthttp.StatusTooManyRequests:
		return nil, &StatusError{
			Status:     status,
			Body:       body,
			URL:        r.URL,
			RetryAfter: parseRetryAfter(resp.Header.Peek(fasthttp.HeaderRetryAfter), c.clock.Now()),
		}
	case status >= 400 && status < 500:
		return nil, &ClientError{Status: status, Body: body, URL: r.URL}
	default:
		return nil, &StatusError{Status: status, Body: body, URL: r.URL}
	}
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = c.clock.Now()
}

// parseRetryAfter accepts delta seconds or an HTTP date. Zero means absent.
func parseRetryAfter(raw []byte, now time.Time) time.Duration {
	if len(raw) == 0 {
		return 0
	}
	if secs, err := strconv.Atoi(string(raw)); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(string(raw)); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
