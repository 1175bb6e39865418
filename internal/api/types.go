package api

import (
	"encoding/json"
	"time"
)

// JSON:API envelopes returned by api.pubg.com.

type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Relationship struct {
	Data []ResourceRef `json:"data"`
}

type PlayersResponse struct {
	Data []PlayerResource `json:"data"`
}

type PlayerResponse struct {
	Data PlayerResource `json:"data"`
}

type PlayerResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Name    string `json:"name"`
		ShardID string `json:"shardId"`
	} `json:"attributes"`
	Relationships struct {
		Matches Relationship `json:"matches"`
	} `json:"relationships"`
}

type MatchResponse struct {
	Data     MatchResource      `json:"data"`
	Included []IncludedResource `json:"included"`
}

type MatchResource struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	Attributes    MatchAttributes `json:"attributes"`
	Relationships struct {
		Rosters Relationship `json:"rosters"`
		Assets  Relationship `json:"assets"`
	} `json:"relationships"`
}

type MatchAttributes struct {
	CreatedAt     time.Time `json:"createdAt"`
	Duration      int       `json:"duration"`
	GameMode      string    `json:"gameMode"`
	MapName       string    `json:"mapName"`
	MatchType     string    `json:"matchType"`
	IsCustomMatch bool      `json:"isCustomMatch"`
	SeasonState   string    `json:"seasonState"`
	ShardID       string    `json:"shardId"`
	TitleID       string    `json:"titleId"`
}

// IncludedResource keeps attributes raw; their shape depends on Type.
type IncludedResource struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships struct {
		Participants Relationship `json:"participants"`
	} `json:"relationships"`
}

type RosterAttributes struct {
	Stats struct {
		Rank   int `json:"rank"`
		TeamID int `json:"teamId"`
	} `json:"stats"`
	// "true" or "false"
	Won string `json:"won"`
}

type ParticipantAttributes struct {
	Stats ParticipantStats `json:"stats"`
}

type ParticipantStats struct {
	Name          string  `json:"name"`
	PlayerID      string  `json:"playerId"`
	Kills         int     `json:"kills"`
	Assists       int     `json:"assists"`
	DBNOs         int     `json:"DBNOs"`
	DamageDealt   float64 `json:"damageDealt"`
	HeadshotKills int     `json:"headshotKills"`
	TimeSurvived  float64 `json:"timeSurvived"`
	WinPlace      int     `json:"winPlace"`
}

type AssetAttributes struct {
	URL         string    `json:"URL"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	Description string    `json:"description"`
}

type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
