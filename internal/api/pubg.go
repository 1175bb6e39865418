package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"pubg-tournament/internal/config"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/fetch"
	"time"
)

const jsonAPIMediaType = "application/vnd.api+json"

// PUBGClient binds the PUBG endpoints to the resilient fetch client. Methods
// return raw bodies so callers can cache them as-is.
type PUBGClient struct {
	baseURL string
	apiKey  string
	http    *fetch.Client
}

func NewPUBGClient(cfg *config.Config, client *fetch.Client) *PUBGClient {
	return &PUBGClient{
		baseURL: cfg.PUBGBaseURL,
		apiKey:  cfg.PUBGAPIKey,
		http:    client,
	}
}

func (c *PUBGClient) UpstreamStats() fetch.Stats {
	return c.http.Stats()
}

func (c *PUBGClient) PlayersByName(ctx context.Context, platform domain.Platform, name string) ([]byte, error) {
	u := fmt.Sprintf("%s/shards/%s/players?filter%%5BplayerNames%%5D=%s", c.baseURL, platform, url.QueryEscape(name))
	return c.get(ctx, u, constants.MetadataTimeout)
}

func (c *PUBGClient) Player(ctx context.Context, platform domain.Platform, accountID string) ([]byte, error) {
	u := fmt.Sprintf("%s/shards/%s/players/%s", c.baseURL, platform, url.PathEscape(accountID))
	return c.get(ctx, u, constants.MetadataTimeout)
}

func (c *PUBGClient) Match(ctx context.Context, platform domain.Platform, matchID string) ([]byte, error) {
	u := fmt.Sprintf("%s/shards/%s/matches/%s", c.baseURL, platform, url.PathEscape(matchID))
	return c.get(ctx, u, constants.MetadataTimeout)
}

// Telemetry downloads a telemetry file from the CDN. The CDN takes no API key.
func (c *PUBGClient) Telemetry(ctx context.Context, telemetryURL string) ([]byte, error) {
	resp, err := c.http.Do(ctx, fetch.Request{
		URL:     telemetryURL,
		Timeout: constants.TelemetryTimeout,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *PUBGClient) get(ctx context.Context, u string, timeout time.Duration) ([]byte, error) {
	resp, err := c.http.Do(ctx, fetch.Request{
		URL: u,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        jsonAPIMediaType,
		},
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func Decode[T any](body []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", result, err)
	}
	return &result, nil
}
