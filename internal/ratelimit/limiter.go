// Package ratelimit paces outbound calls to the PUBG API.
//
// A single Limiter is shared by every upstream call in the process. Acquire
// combines a minimum spacing between requests with a sliding one-minute window
// capped at the configured quota.
package ratelimit

import (
	"context"
	"fmt"
	"pubg-tournament/internal/clock"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	PerMinute   int
	MinInterval time.Duration
	Window      time.Duration
}

type Limiter struct {
	// sem serializes Acquire so two callers never clear the window together.
	sem chan struct{}

	perMinute   int
	minInterval time.Duration
	window      time.Duration
	clock       clock.Clock
	logger      zerolog.Logger

	// guarded by sem
	lastRequestAt time.Time
	timestamps    []time.Time
}

func New(cfg Config, clk clock.Clock, logger zerolog.Logger) (*Limiter, error) {
	if cfg.PerMinute <= 0 {
		return nil, fmt.Errorf("rate limit quota must be positive, got %d", cfg.PerMinute)
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Limiter{
		sem:         make(chan struct{}, 1),
		perMinute:   cfg.PerMinute,
		minInterval: cfg.MinInterval,
		window:      cfg.Window,
		clock:       clk,
		logger:      logger,
	}, nil
}

// Acquire blocks until the next outbound request may be issued and records it.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	now := l.clock.Now()
	if !l.lastRequestAt.IsZero() {
		if wait := l.minInterval - now.Sub(l.lastRequestAt); wait > 0 {
			l.logger.Debug().Dur("wait", wait).Msg("rate limiter spacing requests")
			if err := l.clock.SleepContext(ctx, wait); err != nil {
				return err
			}
			now = l.clock.Now()
		}
	}

	l.prune(now)
	if len(l.timestamps) >= l.perMinute {
		wait := l.timestamps[len(l.timestamps)-l.perMinute].Add(l.window).Sub(now)
		if wait > 0 {
			l.logger.Info().
				Dur("wait", wait).
				Int("in_window", len(l.timestamps)).
				Int("quota", l.perMinute).
				Msg("rate limit window full, waiting")
			if err := l.clock.SleepContext(ctx, wait); err != nil {
				return err
			}
			now = l.clock.Now()
		}
		l.prune(now)
	}

	l.timestamps = append(l.timestamps, now)
	l.lastRequestAt = now
	return nil
}

// prune drops timestamps that fell out of the trailing window.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

type Snapshot struct {
	PerMinute     int
	MinInterval   time.Duration
	InWindow      int
	LastRequestAt time.Time
}

func (l *Limiter) Snapshot(ctx context.Context) (Snapshot, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	defer func() { <-l.sem }()

	l.prune(l.clock.Now())
	return Snapshot{
		PerMinute:     l.perMinute,
		MinInterval:   l.minInterval,
		InWindow:      len(l.timestamps),
		LastRequestAt: l.lastRequestAt,
	}, nil
}
