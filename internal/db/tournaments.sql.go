package db

import (
	"context"
	"time"
)

const createTournament = `
INSERT INTO tournaments (id, name, platform, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateTournamentParams struct {
	ID        string
	Name      string
	Platform  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateTournament(ctx context.Context, arg CreateTournamentParams) error {
	_, err := q.db.ExecContext(ctx, createTournament,
		arg.ID,
		arg.Name,
		arg.Platform,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTournament = `
SELECT id, name, platform, created_at, updated_at
FROM tournaments
WHERE id = ?
`

func (q *Queries) GetTournament(ctx context.Context, id string) (Tournament, error) {
	row := q.db.QueryRowContext(ctx, getTournament, id)
	var i Tournament
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Platform,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const touchTournament = `
UPDATE tournaments SET updated_at = ? WHERE id = ?
`

type TouchTournamentParams struct {
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) TouchTournament(ctx context.Context, arg TouchTournamentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchTournament, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createTeam = `
INSERT INTO teams (id, tournament_id, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateTeamParams struct {
	ID           string
	TournamentID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) error {
	_, err := q.db.ExecContext(ctx, createTeam,
		arg.ID,
		arg.TournamentID,
		arg.Name,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const addTeamPlayer = `
INSERT INTO team_players (team_id, player_name, position)
VALUES (?, ?, ?)
ON CONFLICT (team_id, player_name) DO UPDATE SET position = excluded.position
`

type AddTeamPlayerParams struct {
	TeamID     string
	PlayerName string
	Position   int64
}

func (q *Queries) AddTeamPlayer(ctx context.Context, arg AddTeamPlayerParams) error {
	_, err := q.db.ExecContext(ctx, addTeamPlayer, arg.TeamID, arg.PlayerName, arg.Position)
	return err
}

const listTeamsByTournament = `
SELECT id, tournament_id, name, created_at, updated_at
FROM teams
WHERE tournament_id = ?
ORDER BY created_at, name
`

func (q *Queries) ListTeamsByTournament(ctx context.Context, tournamentID string) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsByTournament, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(
			&i.ID,
			&i.TournamentID,
			&i.Name,
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

const listTeamPlayersByTournament = `
SELECT tp.team_id, tp.player_name, tp.position
FROM team_players tp
JOIN teams t ON t.id = tp.team_id
WHERE t.tournament_id = ?
ORDER BY tp.team_id, tp.position
`

func (q *Queries) ListTeamPlayersByTournament(ctx context.Context, tournamentID string) ([]TeamPlayer, error) {
	rows, err := q.db.QueryContext(ctx, listTeamPlayersByTournament, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TeamPlayer
	for rows.Next() {
		var i TeamPlayer
		if err := rows.Scan(&i.TeamID, &i.PlayerName, &i.Position); err != nil {
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
