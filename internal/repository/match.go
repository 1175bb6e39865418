package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/db"
	"pubg-tournament/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

// MatchRepository stores assembled tournament results.
type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// UpsertBatch writes results in batches inside one transaction. Organizer
// overrides already stored are kept.
func (r *MatchRepository) UpsertBatch(ctx context.Context, tournamentID string, results []domain.SearchResult, now time.Time) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	for i := 0; i < len(results); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(results))

		for _, res := range results[i:end] {
			payload, err := json.Marshal(res.Match)
			if err != nil {
				return fmt.Errorf("failed to encode match %s: %w", res.Match.ID, err)
			}
			players, err := json.Marshal(res.MatchedPlayerNames)
			if err != nil {
				return fmt.Errorf("failed to encode matched players for %s: %w", res.Match.ID, err)
			}

			err = qtx.UpsertTournamentMatch(ctx, db.UpsertTournamentMatchParams{
				TournamentID:   tournamentID,
				MatchID:        res.Match.ID,
				MatchCreatedAt: res.Match.CreatedAt,
				Classification: string(res.Match.Classification),
				PlayerCoverage: int64(res.PlayerCoverage),
				PriorityScore:  res.PriorityScore,
				MatchedPlayers: string(players),
				Payload:        string(payload),
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert match %s: %w", res.Match.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *MatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]domain.TournamentMatch, error) {
	rows, err := r.queries.ListTournamentMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.TournamentMatch, 0, len(rows))
	for _, row := range rows {
		var match domain.MatchRecord
		if err := json.Unmarshal([]byte(row.Payload), &match); err != nil {
			return nil, fmt.Errorf("failed to decode stored match %s: %w", row.MatchID, err)
		}
		var players []string
		if err := json.Unmarshal([]byte(row.MatchedPlayers), &players); err != nil {
			return nil, fmt.Errorf("failed to decode matched players for %s: %w", row.MatchID, err)
		}
		match.Classification = domain.Classification(row.Classification)

		tm := domain.TournamentMatch{
			TournamentID: row.TournamentID,
			Result: domain.SearchResult{
				Match:              match,
				MatchedPlayerNames: players,
				PlayerCoverage:     int(row.PlayerCoverage),
				PriorityScore:      row.PriorityScore,
			},
			UpdatedAt: row.UpdatedAt,
		}
		if row.ClassificationOverride.Valid {
			tm.Override = domain.Classification(row.ClassificationOverride.String)
		}
		results = append(results, tm)
	}
	return results, nil
}

// SetOverride stores an organizer label; an empty label clears it.
func (r *MatchRepository) SetOverride(ctx context.Context, tournamentID, matchID string, label domain.Classification, now time.Time) error {
	affected, err := r.queries.SetClassificationOverride(ctx, db.SetClassificationOverrideParams{
		ClassificationOverride: sql.NullString{String: string(label), Valid: label != ""},
		UpdatedAt:              now,
		TournamentID:           tournamentID,
		MatchID:                matchID,
	})
	if err != nil {
		return fmt.Errorf("failed to set classification override: %w", err)
	}
	if affected == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}
