package server

import (
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/fetch"
	"pubg-tournament/internal/service"
	"time"
)

type SearchMatchesRequest struct {
	PlayerName      string   `json:"playerName"`
	PlayerNames     []string `json:"playerNames"`
	Platform        string   `json:"platform"`
	TimeRange       string   `json:"timeRange"`
	CustomMatchOnly bool     `json:"customMatchOnly"`
}

// SearchMatchesResponse.Data holds MatchRecords for a single player and
// SearchResults for a roster.
type SearchMatchesResponse struct {
	Data any                `json:"data"`
	Meta service.SearchMeta `json:"meta"`
}

type GetMatchDetailsRequest struct {
	MatchID     string `json:"matchId"`
	Platform    string `json:"platform"`
	BypassCache bool   `json:"bypassCache"`
}

type GetTelemetryRequest struct {
	MatchID      string `json:"matchId"`
	TelemetryURL string `json:"telemetryUrl"`
	Platform     string `json:"platform"`
}

type CreateTournamentRequest struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

type RegisterTeamRequest struct {
	TournamentID string   `json:"tournamentId"`
	Name         string   `json:"name"`
	Players      []string `json:"players"`
}

type GetTournamentRequest struct {
	TournamentID string `json:"tournamentId"`
}

type AssembleResultsRequest struct {
	TournamentID string `json:"tournamentId"`
	TimeRange    string `json:"timeRange"`
}

type ListResultsRequest struct {
	TournamentID string `json:"tournamentId"`
}

type OverrideClassificationRequest struct {
	TournamentID string `json:"tournamentId"`
	MatchID      string `json:"matchId"`
	// empty clears the override
	Classification string `json:"classification"`
}

type OverrideClassificationResponse struct {
	TournamentID   string                `json:"tournamentId"`
	MatchID        string                `json:"matchId"`
	Classification domain.Classification `json:"classification"`
}

type GetUpstreamStatusRequest struct{}

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

type Tournament struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Platform  domain.Platform `json:"platform"`
	Teams     []Team          `json:"teams"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TournamentResult struct {
	domain.SearchResult
	// Classification is the organizer override when set, else the classifier's label.
	Classification domain.Classification `json:"classification"`
	Overridden     bool                  `json:"overridden"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type ResultsResponse struct {
	TournamentID string             `json:"tournamentId"`
	Results      []TournamentResult `json:"results"`
}

type LimiterStatus struct {
	PerMinute     int       `json:"perMinute"`
	MinIntervalMS int64     `json:"minIntervalMs"`
	InWindow      int       `json:"inWindow"`
	LastRequestAt time.Time `json:"lastRequestAt"`
}

type UpstreamStatusResponse struct {
	Upstream        fetch.Stats    `json:"upstream"`
	Limiter         *LimiterStatus `json:"limiter,omitempty"`
	ClassifierRules []string       `json:"classifierRules"`
}

func toTeam(t domain.Team) Team {
	players := t.Players
	if players == nil {
		players = []string{}
	}
	return Team{ID: t.ID, Name: t.Name, Players: players, CreatedAt: t.CreatedAt}
}

func toTournament(t *domain.Tournament) Tournament {
	teams := make([]Team, 0, len(t.Teams))
	for _, team := range t.Teams {
		teams = append(teams, toTeam(team))
	}
	return Tournament{
		ID:        t.ID,
		Name:      t.Name,
		Platform:  t.Platform,
		Teams:     teams,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toResults(tournamentID string, matches []domain.TournamentMatch) *ResultsResponse {
	results := make([]TournamentResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, TournamentResult{
			SearchResult:   m.Result,
			Classification: m.Effective(),
			Overridden:     m.Override != "",
			UpdatedAt:      m.UpdatedAt,
		})
	}
	return &ResultsResponse{TournamentID: tournamentID, Results: results}
}
