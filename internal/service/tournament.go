package service

import (
	"context"
	"fmt"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/repository"
	"strings"

	"github.com/rs/zerolog"
)

type TournamentService struct {
	tournaments *repository.TournamentRepository
	matches     *repository.MatchRepository
	roster      *RosterSearch
	clock       clock.Clock
	logger      zerolog.Logger
}

func NewTournamentService(
	tournaments *repository.TournamentRepository,
	matches *repository.MatchRepository,
	roster *RosterSearch,
	clk clock.Clock,
	logger zerolog.Logger,
) *TournamentService {
	return &TournamentService{
		tournaments: tournaments,
		matches:     matches,
		roster:      roster,
		clock:       clk,
		logger:      logger,
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, name, platform string) (*domain.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", domain.ErrInvalidArgument)
	}
	p, err := domain.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	now := s.clock.Now()
	t := &domain.Tournament{Name: name, Platform: p, CreatedAt: now, UpdatedAt: now}
	if err := s.tournaments.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info().Str("tournament_id", t.ID).Str("name", name).Msg("tournament created")
	return t, nil
}

func (s *TournamentService) RegisterTeam(ctx context.Context, tournamentID, name string, players []string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", domain.ErrInvalidArgument)
	}
	roster := NormalizeRoster(players)
	if len(roster) == 0 {
		return nil, domain.ErrEmptyRoster
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	now := s.clock.Now()
	team := &domain.Team{TournamentID: tournamentID, Name: name, Players: roster, CreatedAt: now, UpdatedAt: now}
	if err := s.tournaments.AddTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to register team %s: %w", name, err)
	}

	s.logger.Info().
		Str("tournament_id", tournamentID).
		Str("team", name).
		Strs("players", roster).
		Msg("team registered")
	return team, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (*domain.Tournament, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.tournaments.Get(ctx, id)
}

// AssembleResults searches the registered players' shared custom matches and
// stores them against the tournament. Names are taken round-robin across
// teams, so the roster cap still samples every team.
func (s *TournamentService) AssembleResults(ctx context.Context, tournamentID, timeRange string) ([]domain.TournamentMatch, error) {
	tr, err := domain.ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}

	t, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	names := t.PlayerNames()
	if len(names) == 0 {
		return nil, domain.ErrEmptyRoster
	}

	log := s.logger.With().Str("tournament_id", tournamentID).Logger()
	log.Info().Strs("players", names).Str("time_range", string(tr)).Msg("assembling tournament results")

	searchCtx, cancel := context.WithTimeout(ctx, constants.RosterSearchTimeout)
	results, err := s.roster.SearchByRoster(searchCtx, names, t.Platform, tr)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to search tournament matches: %w", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := s.matches.UpsertBatch(dbCtx, tournamentID, results, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to store tournament results: %w", err)
	}

	log.Info().Int("matches", len(results)).Msg("tournament results stored")
	return s.matches.ListByTournament(dbCtx, tournamentID)
}

func (s *TournamentService) ListResults(ctx context.Context, tournamentID string) ([]domain.TournamentMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.tournaments.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matches.ListByTournament(ctx, tournamentID)
}

// OverrideClassification relabels a stored match. An empty label restores the
// classifier's verdict.
func (s *TournamentService) OverrideClassification(ctx context.Context, tournamentID, matchID, label string) error {
	var c domain.Classification
	if strings.TrimSpace(label) != "" {
		parsed, err := domain.ParseClassification(label)
		if err != nil {
			return err
		}
		c = parsed
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.matches.SetOverride(ctx, tournamentID, matchID, c, s.clock.Now()); err != nil {
		return err
	}
	s.logger.Info().
		Str("tournament_id", tournamentID).
		Str("match_id", matchID).
		Str("override", string(c)).
		Msg("classification overridden")
	return nil
}
