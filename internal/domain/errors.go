package domain

import "errors"

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidPlatform       = errors.New("invalid platform")
	ErrInvalidTimeRange      = errors.New("invalid time range, expected one of 24h, 48h, 7d, 14d")
	ErrInvalidClassification = errors.New("invalid classification, expected RANKED, CUSTOM or PUBLIC")
	ErrEmptyRoster           = errors.New("at least one player name is required")
	ErrMissingMatchID        = errors.New("match id is required")
	ErrMatchNotFound         = errors.New("match not found")
	ErrTelemetryNotFound     = errors.New("telemetry not found")
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrTeamExists            = errors.New("a team with this name is already registered")
)
