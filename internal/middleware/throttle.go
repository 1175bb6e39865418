package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle keeps one token bucket per client address. Buckets idle for longer
// than the TTL are dropped on a later request.
type Throttle struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

// NewThrottle returns nil when perSecond is not positive; a nil Throttle lets
// every request through.
func NewThrottle(perSecond float64, burst int, ttl time.Duration, logger zerolog.Logger) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Allow reports whether client may proceed and, if not, how long until it may.
func (t *Throttle) Allow(client string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.ttl > 0 && now.Sub(t.lastSweep) >= t.ttl {
		t.evict(now)
		t.lastSweep = now
	}

	c, ok := t.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[client] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (t *Throttle) evict(now time.Time) {
	for key, c := range t.clients {
		if now.Sub(c.lastSeen) > t.ttl {
			delete(t.clients, key)
		}
	}
}

func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		ok, wait := t.Allow(client)
		if !ok {
			zerolog.Ctx(r.Context()).Warn().
				Str("client", client).
				Dur("retry_after", wait).
				Msg("inbound request throttled")

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"resource_exhausted","message":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr strips the port; chi's RealIP has already applied proxy headers.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
