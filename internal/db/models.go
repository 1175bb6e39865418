package db

import (
	"database/sql"
	"time"
)

type Tournament struct {
	ID        string
	Name      string
	Platform  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Team struct {
	ID           string
	TournamentID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TeamPlayer struct {
	TeamID     string
	PlayerName string
	Position   int64
}

type TournamentMatch struct {
	TournamentID           string
	MatchID                string
	MatchCreatedAt         time.Time
	Classification         string
	ClassificationOverride sql.NullString
	PlayerCoverage         int64
	PriorityScore          float64
	MatchedPlayers         string
	Payload                string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
