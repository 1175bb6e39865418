package db

import (
	"context"
	"database/sql"
	"time"
)

// The override column is left untouched so re-assembly keeps organizer labels.
const upsertTournamentMatch = `
INSERT INTO tournament_matches (
    tournament_id, match_id, match_created_at, classification,
    player_coverage, priority_score, matched_players, payload,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tournament_id, match_id) DO UPDATE SET
    match_created_at = excluded.match_created_at,
    classification   = excluded.classification,
    player_coverage  = excluded.player_coverage,
    priority_score   = excluded.priority_score,
    matched_players  = excluded.matched_players,
    payload          = excluded.payload,
    updated_at       = excluded.updated_at
`

type UpsertTournamentMatchParams struct {
	TournamentID   string
	MatchID        string
	MatchCreatedAt time.Time
	Classification string
	PlayerCoverage int64
	PriorityScore  float64
	MatchedPlayers string
	Payload        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) UpsertTournamentMatch(ctx context.Context, arg UpsertTournamentMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertTournamentMatch,
		arg.TournamentID,
		arg.MatchID,
		arg.MatchCreatedAt,
		arg.Classification,
		arg.PlayerCoverage,
		arg.PriorityScore,
		arg.MatchedPlayers,
		arg.Payload,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const listTournamentMatches = `
SELECT tournament_id, match_id, match_created_at, classification, classification_override,
       player_coverage, priority_score, matched_players, payload, created_at, updated_at
FROM tournament_matches
WHERE tournament_id = ?
ORDER BY priority_score DESC, match_created_at DESC
`

func (q *Queries) ListTournamentMatches(ctx context.Context, tournamentID string) ([]TournamentMatch, error) {
	rows, err := q.db.QueryContext(ctx, listTournamentMatches, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TournamentMatch
	for rows.Next() {
		var i TournamentMatch
		if err := rows.Scan(
			&i.TournamentID,
			&i.MatchID,
			&i.MatchCreatedAt,
			&i.Classification,
			&i.ClassificationOverride,
			&i.PlayerCoverage,
			&i.PriorityScore,
			&i.MatchedPlayers,
			&i.Payload,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setClassificationOverride = `
UPDATE tournament_matches
SET classification_override = ?, updated_at = ?
WHERE tournament_id = ? AND match_id = ?
`

type SetClassificationOverrideParams struct {
	ClassificationOverride sql.NullString
	UpdatedAt              time.Time
	TournamentID           string
	MatchID                string
}

func (q *Queries) SetClassificationOverride(ctx context.Context, arg SetClassificationOverrideParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setClassificationOverride,
		arg.ClassificationOverride,
		arg.UpdatedAt,
		arg.TournamentID,
		arg.MatchID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
