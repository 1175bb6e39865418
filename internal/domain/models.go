package domain

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformSteam   Platform = "steam"
	PlatformKakao   Platform = "kakao"
	PlatformXbox    Platform = "xbox"
	PlatformPSN     Platform = "psn"
	PlatformStadia  Platform = "stadia"
	PlatformConsole Platform = "console"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformSteam, PlatformKakao, PlatformXbox, PlatformPSN, PlatformStadia, PlatformConsole:
		return p, nil
	case "":
		return PlatformSteam, nil
	default:
		return "", ErrInvalidPlatform
	}
}

type Classification string

const (
	ClassificationRanked  Classification = "RANKED"
	ClassificationCustom  Classification = "CUSTOM"
	ClassificationPublic  Classification = "PUBLIC"
	ClassificationUnknown Classification = "UNKNOWN"
)

func ParseClassification(s string) (Classification, error) {
	switch c := Classification(strings.ToUpper(strings.TrimSpace(s))); c {
	case ClassificationRanked, ClassificationCustom, ClassificationPublic:
		return c, nil
	default:
		return "", ErrInvalidClassification
	}
}

type PlayerRef struct {
	Name      string
	Platform  Platform
	AccountID string // empty until resolved
}

func (p *PlayerRef) Resolved() bool {
	return p.AccountID != ""
}

type MatchRecord struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"createdAt"`
	MapName        string         `json:"mapName"`
	GameMode       string         `json:"gameMode"`
	MatchType      string         `json:"matchType"`
	IsCustomMatch  bool           `json:"isCustomMatch"`
	PlayerCount    int            `json:"playerCount"`
	Rosters        []Roster       `json:"rosters"`
	Participants   []Participant  `json:"participants"`
	TelemetryURL   string         `json:"telemetryUrl,omitempty"`
	Classification Classification `json:"classification"`
}

// FullTeamRatio is the share of rosters that are complete squads.
func (m *MatchRecord) FullTeamRatio() float64 {
	if len(m.Rosters) == 0 {
		return 0
	}
	full := 0
	for _, r := range m.Rosters {
		if r.IsFullSquad() {
			full++
		}
	}
	return float64(full) / float64(len(m.Rosters))
}

const FullSquadSize = 4

type Roster struct {
	TeamRefID      string   `json:"teamRefId"`
	ParticipantIDs []string `json:"participantIds"`
	Rank           int      `json:"rank"`
	Won            bool     `json:"won"`
}

func (r Roster) IsFullSquad() bool {
	return len(r.ParticipantIDs) == FullSquadSize
}

type Participant struct {
	ID          string  `json:"id"`
	PlayerID    string  `json:"playerId"`
	Name        string  `json:"name"`
	Kills       int     `json:"kills"`
	DamageDealt float64 `json:"damageDealt"`
	WinPlace    int     `json:"winPlace"`
}

type SearchResult struct {
	Match              MatchRecord `json:"match"`
	MatchedPlayerNames []string    `json:"matchedPlayerNames"`
	PlayerCoverage     int         `json:"playerCoverage"`
	PriorityScore      float64     `json:"priorityScore"`
}

type Tournament struct {
	ID        string
	Name      string
	Platform  Platform
	Teams     []Team
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerNames returns every distinct player across teams, interleaved so that
// the first names come from different teams.
func (t *Tournament) PlayerNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for i := 0; ; i++ {
		added := false
		for _, team := range t.Teams {
			if i >= len(team.Players) {
				continue
			}
			added = true
			name := team.Players[i]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		if !added {
			return names
		}
	}
}

type Team struct {
	ID           string
	TournamentID string
	Name         string
	Players      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TournamentMatch struct {
	TournamentID string
	Result       SearchResult
	Override     Classification // empty unless an organizer relabelled the match
	UpdatedAt    time.Time
}

func (m *TournamentMatch) Effective() Classification {
	if m.Override != "" {
		return m.Override
	}
	return m.Result.Match.Classification
}
