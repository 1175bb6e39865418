package service

import (
	"context"
	"errors"
	"fmt"
	"pubg-tournament/internal/api"
	"pubg-tournament/internal/cache"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/fetch"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// MatchSource reads PUBG resources through the cache. Concurrent loads of the
// same key share one upstream call.
type MatchSource struct {
	pubg   *api.PUBGClient
	cache  cache.Store
	group  singleflight.Group
	logger zerolog.Logger
}

func NewMatchSource(pubg *api.PUBGClient, store cache.Store, logger zerolog.Logger) *MatchSource {
	return &MatchSource{pubg: pubg, cache: store, logger: logger}
}

func playerKey(platform domain.Platform, name string) string {
	return fmt.Sprintf("player:%s:%s", platform, name)
}

func playerMatchesKey(platform domain.Platform, accountID string) string {
	return fmt.Sprintf("player-matches:%s:%s", platform, accountID)
}

func matchKey(platform domain.Platform, matchID string) string {
	return fmt.Sprintf("match:%s:%s", platform, matchID)
}

func telemetryKey(matchID string) string {
	return "telemetry:" + matchID
}

func (s *MatchSource) cachedOrFetch(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug().Str("key", key).Msg("cache hit")
		return body, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		if body, ok := s.cache.Get(ctx, key); ok {
			return body, nil
		}
		body, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, body, ttl)
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("key", key).Msg("shared in-flight upstream load")
	}
	return v.([]byte), nil
}

// PlayerByName returns nil without error when the name is unknown upstream.
func (s *MatchSource) PlayerByName(ctx context.Context, platform domain.Platform, name string) (*api.PlayerResource, error) {
	body, err := s.cachedOrFetch(ctx, playerKey(platform, name), constants.PlayerCacheTTL, func(ctx context.Context) ([]byte, error) {
		return s.pubg.PlayersByName(ctx, platform, name)
	})
	if err != nil {
		if fetch.IsStatus(err, 404) {
			return nil, nil
		}
		return nil, err
	}

	players, err := api.Decode[api.PlayersResponse](body)
	if err != nil {
		return nil, err
	}
	if len(players.Data) == 0 {
		return nil, nil
	}
	return &players.Data[0], nil
}

// PlayerMatchIDs returns the account's match references, newest first.
func (s *MatchSource) PlayerMatchIDs(ctx context.Context, platform domain.Platform, accountID string) ([]string, error) {
	body, err := s.cachedOrFetch(ctx, playerMatchesKey(platform, accountID), constants.MatchListCacheTTL, func(ctx context.Context) ([]byte, error) {
		return s.pubg.Player(ctx, platform, accountID)
	})
	if err != nil {
		return nil, err
	}
	player, err := api.Decode[api.PlayerResponse](body)
	if err != nil {
		return nil, err
	}
	return player.Data.MatchIDs(), nil
}

// MatchBody returns the raw match document.
func (s *MatchSource) MatchBody(ctx context.Context, platform domain.Platform, matchID string) ([]byte, error) {
	return s.cachedOrFetch(ctx, matchKey(platform, matchID), constants.MatchCacheTTL, func(ctx context.Context) ([]byte, error) {
		return s.pubg.Match(ctx, platform, matchID)
	})
}

func (s *MatchSource) Match(ctx context.Context, platform domain.Platform, matchID string) (domain.MatchRecord, error) {
	body, err := s.MatchBody(ctx, platform, matchID)
	if err != nil {
		return domain.MatchRecord{}, err
	}
	return decodeMatch(body)
}

// RefreshMatch skips the cache read but still stores a successful answer.
func (s *MatchSource) RefreshMatch(ctx context.Context, platform domain.Platform, matchID string) (domain.MatchRecord, error) {
	body, err := s.pubg.Match(ctx, platform, matchID)
	if err != nil {
		return domain.MatchRecord{}, err
	}
	record, err := decodeMatch(body)
	if err != nil {
		return domain.MatchRecord{}, err
	}
	s.cache.Set(ctx, matchKey(platform, matchID), body, constants.MatchCacheTTL)
	return record, nil
}

// CachedMatch reads the cache only.
func (s *MatchSource) CachedMatch(ctx context.Context, platform domain.Platform, matchID string) (domain.MatchRecord, bool) {
	body, ok := s.cache.Get(ctx, matchKey(platform, matchID))
	if !ok {
		return domain.MatchRecord{}, false
	}
	record, err := decodeMatch(body)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID).Msg("cached match is unreadable")
		return domain.MatchRecord{}, false
	}
	return record, true
}

func (s *MatchSource) Telemetry(ctx context.Context, matchID, telemetryURL string) ([]byte, error) {
	return s.cachedOrFetch(ctx, telemetryKey(matchID), constants.TelemetryCacheTTL, func(ctx context.Context) ([]byte, error) {
		return s.pubg.Telemetry(ctx, telemetryURL)
	})
}

func (s *MatchSource) UpstreamStats() fetch.Stats {
	return s.pubg.UpstreamStats()
}

func decodeMatch(body []byte) (domain.MatchRecord, error) {
	resp, err := api.Decode[api.MatchResponse](body)
	if err != nil {
		return domain.MatchRecord{}, err
	}
	return api.ToMatchRecord(resp)
}

// notFound maps an upstream 404 onto sentinel, keeping the upstream error in the chain.
func notFound(err error, sentinel error) error {
	if fetch.IsStatus(err, 404) {
		return errors.Join(sentinel, err)
	}
	return err
}
