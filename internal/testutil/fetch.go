package testutil

import (
	"context"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/config"
	"pubg-tournament/internal/fetch"
	"time"

	"github.com/rs/zerolog"
)

const (
	BaseURL = "https://api.pubg.test"
	APIKey  = "test-key"
)

type NopPacer struct{}

func (NopPacer) Acquire(ctx context.Context) error {
	return ctx.Err()
}

// FastPolicy keeps the production retry shape with millisecond waits.
func FastPolicy() fetch.Policy {
	return fetch.Policy{
		MaxRetries:        3,
		BaseDelay:         time.Millisecond,
		RateLimitFallback: time.Millisecond,
		RateLimitFactor:   3,
	}
}

func NewFetchClient(tr fetch.Transport, clk clock.Clock) *fetch.Client {
	return fetch.New(tr, NopPacer{}, FastPolicy(), clk, zerolog.Nop())
}

func Config() *config.Config {
	return &config.Config{
		PUBGAPIKey:  APIKey,
		PUBGBaseURL: BaseURL,
	}
}
