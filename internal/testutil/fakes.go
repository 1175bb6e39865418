package testutil

import (
	"context"
	"net/url"
	"pubg-tournament/internal/clock"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

var _ clock.Clock = (*FakeClock)(nil)

// FakeClock never blocks: SleepContext advances the fake time instead.
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	sleeps []time.Duration
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{t: t}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *FakeClock) SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.t = c.t.Add(d)
	}
	return nil
}

func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Reply is one canned upstream answer. A non-nil Err is returned as a transport
// failure. Before, when set, runs as the request arrives.
type Reply struct {
	Status  int
	Body    []byte
	Headers map[string]string
	Err     error
	Before  func()
}

func OK(body []byte) Reply {
	return Reply{Status: fasthttp.StatusOK, Body: body}
}

func Status(code int) Reply {
	return Reply{Status: code, Body: []byte(`{"errors":[{"title":"error"}]}`)}
}

// FakeTransport answers fasthttp requests from a route table keyed by
// "<path>" or "<path>?<unescaped query>". The last reply of a route repeats;
// unknown routes answer 404.
type FakeTransport struct {
	mu     sync.Mutex
	routes map[string][]Reply
	calls  map[string]int
	total  int
	auth   []string
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{routes: make(map[string][]Reply), calls: make(map[string]int)}
}

func (f *FakeTransport) On(route string, replies ...Reply) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = replies
	return f
}

func (f *FakeTransport) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *FakeTransport) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// AuthHeaders returns the Authorization header of every request seen.
func (f *FakeTransport) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *FakeTransport) DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	route := string(req.URI().Path())
	if qs := string(req.URI().QueryString()); qs != "" {
		if unescaped, err := url.QueryUnescape(qs); err == nil {
			qs = unescaped
		}
		route += "?" + qs
	}

	f.mu.Lock()
	n := f.calls[route]
	f.calls[route]++
	f.total++
	f.auth = append(f.auth, string(req.Header.Peek("Authorization")))
	replies := f.routes[route]
	f.mu.Unlock()

	reply := Reply{Status: fasthttp.StatusNotFound, Body: []byte(`{"errors":[{"title":"Not Found"}]}`)}
	if len(replies) > 0 {
		reply = replies[min(n, len(replies)-1)]
	}
	if reply.Before != nil {
		reply.Before()
	}
	if reply.Err != nil {
		return reply.Err
	}

	resp.SetStatusCode(reply.Status)
	resp.SetBody(reply.Body)
	for k, v := range reply.Headers {
		resp.Header.Set(k, v)
	}
	return nil
}
