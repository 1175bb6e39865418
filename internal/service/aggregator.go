package service

import (
	"context"
	"math"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/tuning"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RosterSearch finds matches shared by a roster of players and ranks them.
type RosterSearch struct {
	resolver *MatchResolver
	tuning   *tuning.Store
	clock    clock.Clock
	logger   zerolog.Logger
}

func NewRosterSearch(resolver *MatchResolver, store *tuning.Store, clk clock.Clock, logger zerolog.Logger) *RosterSearch {
	return &RosterSearch{resolver: resolver, tuning: store, clock: clk, logger: logger}
}

// NormalizeRoster trims names and drops blanks and exact duplicates, keeping order.
func NormalizeRoster(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SearchByRoster resolves each player sequentially, so the shared rate limiter
// paces the batch, and merges the custom matches they have in common. If ctx
// ends part way, the players resolved so far are still returned; the error is
// reported only when none were.
func (s *RosterSearch) SearchByRoster(ctx context.Context, playerNames []string, platform domain.Platform, timeRange domain.TimeRange) ([]domain.SearchResult, error) {
	names := NormalizeRoster(playerNames)
	if len(names) == 0 {
		return nil, domain.ErrEmptyRoster
	}
	if len(names) > constants.MaxRosterSize {
		s.logger.Warn().
			Int("requested", len(names)).
			Int("cap", constants.MaxRosterSize).
			Strs("dropped", names[constants.MaxRosterSize:]).
			Msg("roster truncated")
		names = names[:constants.MaxRosterSize]
	}

	var results []*domain.SearchResult
	byID := make(map[string]*domain.SearchResult)

	resolved := 0
	for i, name := range names {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if resolved == 0 {
				return nil, ctxErr
			}
			s.logger.Warn().Err(ctxErr).Strs("skipped", names[i:]).Msg("roster search interrupted, returning partial results")
			break
		}

		matches, err := s.resolver.ResolveRecentMatches(ctx, name, platform, timeRange, true)
		if err != nil {
			s.logger.Warn().Err(err).Str("player", name).Msg("skipping player that could not be resolved")
			continue
		}
		resolved++

		for _, m := range matches {
			if existing, ok := byID[m.ID]; ok {
				if !slices.Contains(existing.MatchedPlayerNames, name) {
					existing.MatchedPlayerNames = append(existing.MatchedPlayerNames, name)
				}
				continue
			}
			r := &domain.SearchResult{Match: m, MatchedPlayerNames: []string{name}}
			byID[m.ID] = r
			results = append(results, r)
		}
	}

	if resolved == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	weights := s.tuning.Get().Priority
	now := s.clock.Now()
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		r.PlayerCoverage = int(math.Round(float64(len(r.MatchedPlayerNames)) / float64(len(names)) * 100))
		r.PriorityScore = priorityScore(r, weights, now)
		out = append(out, *r)
	}

	slices.SortStableFunc(out, func(a, b domain.SearchResult) int {
		switch {
		case a.PriorityScore > b.PriorityScore:
			return -1
		case a.PriorityScore < b.PriorityScore:
			return 1
		default:
			return b.Match.CreatedAt.Compare(a.Match.CreatedAt)
		}
	})

	s.logger.Info().
		Int("players", len(names)).
		Int("matches", len(out)).
		Msg("roster search completed")
	return out, nil
}

func priorityScore(r *domain.SearchResult, w tuning.Priority, now time.Time) float64 {
	score := float64(r.PlayerCoverage)
	if r.Match.IsCustomMatch {
		score += w.CustomFlagBonus
	}
	switch r.Match.Classification {
	case domain.ClassificationCustom:
		score += w.CustomBonus
	case domain.ClassificationRanked:
		score += w.RankedBonus
	}
	if now.Sub(r.Match.CreatedAt) <= w.RecentWindow {
		score += w.RecentBonus
	}
	return score
}
