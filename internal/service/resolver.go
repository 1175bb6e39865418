package service

import (
	"context"
	"fmt"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Classifier interface {
	Classify(m *domain.MatchRecord) domain.Classification
}

type MatchResolver struct {
	source     *MatchSource
	classifier Classifier
	clock      clock.Clock
	logger     zerolog.Logger
}

func NewMatchResolver(source *MatchSource, classifier Classifier, clk clock.Clock, logger zerolog.Logger) *MatchResolver {
	return &MatchResolver{source: source, classifier: classifier, clock: clk, logger: logger}
}

// ResolvePlayer fills ref.AccountID. It reports false when the name is unknown upstream.
func (r *MatchResolver) ResolvePlayer(ctx context.Context, ref *domain.PlayerRef) (bool, error) {
	if ref.Resolved() {
		return true, nil
	}
	player, err := r.source.PlayerByName(ctx, ref.Platform, ref.Name)
	if err != nil {
		return false, fmt.Errorf("failed to look up player %q: %w", ref.Name, err)
	}
	if player == nil {
		return false, nil
	}
	ref.AccountID = player.ID
	return true, nil
}

// ResolveRecentMatches returns the player's recent matches within timeRange,
// classified and newest first. Only the player and match-list lookups can
// fail the call; a match that cannot be fetched is skipped.
func (r *MatchResolver) ResolveRecentMatches(ctx context.Context, playerName string, platform domain.Platform, timeRange domain.TimeRange, customMatchOnly bool) ([]domain.MatchRecord, error) {
	log := r.logger.With().Str("player", playerName).Str("platform", string(platform)).Logger()

	ref := &domain.PlayerRef{Name: playerName, Platform: platform}
	found, err := r.ResolvePlayer(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Info().Msg("player not found upstream")
		return []domain.MatchRecord{}, nil
	}

	ids, err := r.source.PlayerMatchIDs(ctx, platform, ref.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match list for %q: %w", playerName, err)
	}
	if len(ids) == 0 {
		log.Info().Str("account_id", ref.AccountID).Msg("player has no recent matches")
		return []domain.MatchRecord{}, nil
	}
	if len(ids) > constants.MaxRecentMatches {
		log.Debug().Int("available", len(ids)).Int("cap", constants.MaxRecentMatches).Msg("limiting match fetch")
		ids = ids[:constants.MaxRecentMatches]
	}

	fetched := r.fetchMatches(ctx, platform, ids, log)
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Int("fetched", len(fetched)).Int("requested", len(ids)).Msg("match fetch interrupted")
	}

	cutoff := timeRange.Cutoff(r.clock.Now())
	result := make([]domain.MatchRecord, 0, len(fetched))
	for _, m := range fetched {
		if m.CreatedAt.Before(cutoff) {
			continue
		}
		m.Classification = r.classifier.Classify(&m)
		if customMatchOnly && m.Classification != domain.ClassificationCustom {
			continue
		}
		result = append(result, m)
	}

	slices.SortStableFunc(result, func(a, b domain.MatchRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	log.Info().
		Int("fetched", len(fetched)).
		Int("returned", len(result)).
		Str("time_range", string(timeRange)).
		Bool("custom_only", customMatchOnly).
		Msg("resolved recent matches")
	return result, nil
}

func (r *MatchResolver) fetchMatches(ctx context.Context, platform domain.Platform, ids []string, log zerolog.Logger) []domain.MatchRecord {
	slots := make([]*domain.MatchRecord, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MatchFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := r.source.Match(gCtx, platform, id)
			if err != nil {
				log.Warn().Err(err).Str("match_id", id).Msg("skipping match that could not be fetched")
				return nil
			}
			slots[i] = &m
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.MatchRecord, 0, len(ids))
	for _, m := range slots {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}
