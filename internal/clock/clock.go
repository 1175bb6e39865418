package clock

import (
	"context"
	"time"
)

// Clock provides the current time and context-aware sleeping so that pacing and
// retry waits can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	// SleepContext blocks for d or until ctx is cancelled. Returns ctx.Err() if cancelled.
	SleepContext(ctx context.Context, d time.Duration) error
}

var _ Clock = (*Real)(nil)

type Real struct{}

func New() Clock {
	return &Real{}
}

func (c *Real) Now() time.Time { return time.Now() }

func (c *Real) SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
