package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"pubg-tournament/internal/constants"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
)

type Category int

const (
	Other Category = iota
	Reset
	Timeout
	RateLimited
	Rejected
)

func (c Category) String() string {
	switch c {
	case Reset:
		return "reset"
	case Timeout:
		return "timeout"
	case RateLimited:
		return "rate_limited"
	case Rejected:
		return "client"
	default:
		return "other"
	}
}

// Policy decides which failures are retried and how long to wait between attempts.
type Policy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	RateLimitFallback time.Duration
	RateLimitFactor   int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        constants.DefaultMaxRetries,
		BaseDelay:         constants.DefaultRetryBaseDelay,
		RateLimitFallback: constants.DefaultRateLimitFallback,
		RateLimitFactor:   constants.RateLimitBackoffFactor,
	}
}

func (p Policy) Classify(err error) Category {
	if err == nil {
		return Other
	}
	// context errors satisfy net.Error, so they must be checked first
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Other
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		return Rejected
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Status == fasthttp.StatusTooManyRequests {
			return RateLimited
		}
		return Other
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, fasthttp.ErrConnectionClosed),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return Reset
	case errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, fasthttp.ErrTimeout),
		errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, os.ErrDeadlineExceeded):
		return Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}
	return Other
}

func (p Policy) Retryable(err error) bool {
	switch p.Classify(err) {
	case Reset, Timeout, RateLimited:
		return true
	default:
		return false
	}
}

// Delay is the wait before retry number attempt (zero based) after err.
// Transient failures back off as BaseDelay*2^attempt; 429s as
// RetryAfter*RateLimitFactor^attempt, falling back to RateLimitFallback.
func (p Policy) Delay(attempt int, err error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if p.Classify(err) == RateLimited {
		wait := p.RateLimitFallback
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			wait = se.RetryAfter
		}
		factor := max(p.RateLimitFactor, 1)
		for range attempt {
			wait *= time.Duration(factor)
		}
		return wait
	}
	return p.BaseDelay << attempt
}
