package service

import (
	"context"
	"fmt"
	"pubg-tournament/internal/api"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"

	"github.com/rs/zerolog"
)

type MatchDetailService struct {
	source     *MatchSource
	classifier Classifier
	logger     zerolog.Logger
}

func NewMatchDetailService(source *MatchSource, classifier Classifier, logger zerolog.Logger) *MatchDetailService {
	return &MatchDetailService{source: source, classifier: classifier, logger: logger}
}

// GetMatchDetails reads through the cache. With bypassCache the upstream is
// asked first and the cached copy is only served when that call fails.
func (s *MatchDetailService) GetMatchDetails(ctx context.Context, matchID string, platform domain.Platform, bypassCache bool) (*domain.MatchRecord, error) {
	if matchID == "" {
		return nil, domain.ErrMissingMatchID
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	log := s.logger.With().Str("match_id", matchID).Bool("bypass_cache", bypassCache).Logger()
	log.Debug().Msg("getting match details")

	var (
		m   domain.MatchRecord
		err error
	)
	if bypassCache {
		m, err = s.source.RefreshMatch(ctx, platform, matchID)
		if err != nil {
			cached, ok := s.source.CachedMatch(ctx, platform, matchID)
			if !ok {
				return nil, fmt.Errorf("failed to fetch match %s: %w", matchID, notFound(err, domain.ErrMatchNotFound))
			}
			log.Warn().Err(err).Msg("upstream refresh failed, serving cached match")
			m, err = cached, nil
		}
	} else {
		m, err = s.source.Match(ctx, platform, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch match %s: %w", matchID, notFound(err, domain.ErrMatchNotFound))
		}
	}

	m.Classification = s.classifier.Classify(&m)
	log.Info().Str("classification", string(m.Classification)).Msg("match details resolved")
	return &m, nil
}

type Telemetry struct {
	MatchID      string
	TelemetryURL string
	// raw telemetry document, a JSON array of events
	Events []byte
}

// GetTelemetry fetches the opaque telemetry file. Without an explicit URL the
// link is discovered from the match's included asset.
func (s *MatchDetailService) GetTelemetry(ctx context.Context, matchID, telemetryURL string, platform domain.Platform) (*Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if telemetryURL == "" {
		if matchID == "" {
			return nil, domain.ErrMissingMatchID
		}
		body, err := s.source.MatchBody(ctx, platform, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch match %s: %w", matchID, notFound(err, domain.ErrMatchNotFound))
		}
		telemetryURL, err = api.TelemetryURL(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTelemetryNotFound, err)
		}
	}

	key := matchID
	if key == "" {
		key = telemetryURL
	}
	events, err := s.source.Telemetry(ctx, key, telemetryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch telemetry for %s: %w", key, notFound(err, domain.ErrTelemetryNotFound))
	}

	s.logger.Info().Str("match_id", matchID).Int("bytes", len(events)).Msg("telemetry fetched")
	return &Telemetry{MatchID: matchID, TelemetryURL: telemetryURL, Events: events}, nil
}
