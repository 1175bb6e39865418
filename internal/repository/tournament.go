package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pubg-tournament/internal/db"
	"pubg-tournament/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type TournamentRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewTournamentRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *TournamentRepository {
	return &TournamentRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Create assigns an id when t.ID is empty.
func (r *TournamentRepository) Create(ctx context.Context, t *domain.Tournament) error {
	if t.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		t.ID = id
	}

	return r.queries.CreateTournament(ctx, db.CreateTournamentParams{
		ID:        t.ID,
		Name:      t.Name,
		Platform:  string(t.Platform),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	})
}

// Get loads the tournament with its teams and their players in registration order.
func (r *TournamentRepository) Get(ctx context.Context, id string) (*domain.Tournament, error) {
	row, err := r.queries.GetTournament(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTournamentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	teams, err := r.queries.ListTeamsByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	players, err := r.queries.ListTeamPlayersByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team players: %w", err)
	}

	byTeam := make(map[string][]string, len(teams))
	for _, p := range players {
		byTeam[p.TeamID] = append(byTeam[p.TeamID], p.PlayerName)
	}

	t := &domain.Tournament{
		ID:        row.ID,
		Name:      row.Name,
		Platform:  domain.Platform(row.Platform),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Teams:     make([]domain.Team, 0, len(teams)),
	}
	for _, team := range teams {
		t.Teams = append(t.Teams, domain.Team{
			ID:           team.ID,
			TournamentID: team.TournamentID,
			Name:         team.Name,
			Players:      byTeam[team.ID],
			CreatedAt:    team.CreatedAt,
			UpdatedAt:    team.UpdatedAt,
		})
	}
	return t, nil
}

// AddTeam stores the team and its roster in one transaction.
func (r *TournamentRepository) AddTeam(ctx context.Context, team *domain.Team) error {
	if team.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		team.ID = id
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	touched, err := qtx.TouchTournament(ctx, db.TouchTournamentParams{UpdatedAt: team.UpdatedAt, ID: team.TournamentID})
	if err != nil {
		return fmt.Errorf("failed to touch tournament: %w", err)
	}
	if touched == 0 {
		return domain.ErrTournamentNotFound
	}

	if err := qtx.CreateTeam(ctx, db.CreateTeamParams{
		ID:           team.ID,
		TournamentID: team.TournamentID,
		Name:         team.Name,
		CreatedAt:    team.CreatedAt,
		UpdatedAt:    team.UpdatedAt,
	}); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ErrTeamExists
		}
		return fmt.Errorf("failed to create team %s: %w", team.Name, err)
	}

	for i, name := range team.Players {
		if err := qtx.AddTeamPlayer(ctx, db.AddTeamPlayerParams{
			TeamID:     team.ID,
			PlayerName: name,
			Position:   int64(i),
		}); err != nil {
			return fmt.Errorf("failed to add player %s: %w", name, err)
		}
	}

	return tx.Commit()
}
