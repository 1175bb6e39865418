package service

import (
	"context"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"

	"github.com/rs/zerolog"
)

type SearchRequest struct {
	PlayerName      string
	PlayerNames     []string
	Platform        string
	TimeRange       string
	CustomMatchOnly bool
}

type SearchMeta struct {
	Players   []string         `json:"players"`
	Platform  domain.Platform  `json:"platform"`
	TimeRange domain.TimeRange `json:"timeRange"`
	Total     int              `json:"total"`
	Truncated bool             `json:"truncated"`
}

// SearchResponse carries Matches for a single player and Results for a roster.
type SearchResponse struct {
	Matches []domain.MatchRecord
	Results []domain.SearchResult
	Meta    SearchMeta
}

// SearchService is the entry point behind the search RPC: one name goes to
// the resolver, several go to the roster aggregator.
type SearchService struct {
	resolver *MatchResolver
	roster   *RosterSearch
	logger   zerolog.Logger
}

func NewSearchService(resolver *MatchResolver, roster *RosterSearch, logger zerolog.Logger) *SearchService {
	return &SearchService{resolver: resolver, roster: roster, logger: logger}
}

func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		return nil, err
	}
	timeRange, err := domain.ParseTimeRange(req.TimeRange)
	if err != nil {
		return nil, err
	}

	names := NormalizeRoster(append([]string{req.PlayerName}, req.PlayerNames...))
	if len(names) == 0 {
		return nil, domain.ErrEmptyRoster
	}

	timeout := constants.RequestTimeout
	if len(names) > 1 {
		timeout = constants.RosterSearchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	meta := SearchMeta{Platform: platform, TimeRange: timeRange}

	if len(names) == 1 {
		matches, err := s.resolver.ResolveRecentMatches(ctx, names[0], platform, timeRange, req.CustomMatchOnly)
		if err != nil {
			return nil, err
		}
		meta.Players = names
		meta.Total = len(matches)
		return &SearchResponse{Matches: matches, Meta: meta}, nil
	}

	if len(names) > constants.MaxRosterSize {
		meta.Truncated = true
		meta.Players = names[:constants.MaxRosterSize]
	} else {
		meta.Players = names
	}
	results, err := s.roster.SearchByRoster(ctx, names, platform, timeRange)
	if err != nil {
		return nil, err
	}
	meta.Total = len(results)
	return &SearchResponse{Results: results, Meta: meta}, nil
}
