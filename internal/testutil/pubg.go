package testutil

import (
	"encoding/json"
	"fmt"
	"time"
)

type PlayerFixture struct {
	Name      string
	AccountID string
	MatchIDs  []string
}

type MatchFixture struct {
	ID           string
	CreatedAt    time.Time
	MapName      string
	GameMode     string
	MatchType    string
	IsCustom     bool
	Rosters      [][]string // player names per roster
	TelemetryURL string
}

func AccountID(name string) string {
	return "account." + name
}

func playerResource(p PlayerFixture) map[string]any {
	refs := make([]map[string]any, 0, len(p.MatchIDs))
	for _, id := range p.MatchIDs {
		refs = append(refs, map[string]any{"type": "match", "id": id})
	}
	accountID := p.AccountID
	if accountID == "" {
		accountID = AccountID(p.Name)
	}
	return map[string]any{
		"type": "player",
		"id":   accountID,
		"attributes": map[string]any{
			"name":    p.Name,
			"shardId": "steam",
		},
		"relationships": map[string]any{
			"matches": map[string]any{"data": refs},
		},
	}
}

// PlayersBody is the answer of the players-by-name endpoint.
func PlayersBody(players ...PlayerFixture) []byte {
	data := make([]map[string]any, 0, len(players))
	for _, p := range players {
		data = append(data, playerResource(p))
	}
	return mustJSON(map[string]any{"data": data})
}

// PlayerBody is the answer of the player-by-id endpoint.
func PlayerBody(p PlayerFixture) []byte {
	return mustJSON(map[string]any{"data": playerResource(p)})
}

func MatchBody(m MatchFixture) []byte {
	var rosterRefs []map[string]any
	var included []map[string]any

	for i, names := range m.Rosters {
		rosterID := fmt.Sprintf("%s-roster-%d", m.ID, i)
		rosterRefs = append(rosterRefs, map[string]any{"type": "roster", "id": rosterID})

		var participantRefs []map[string]any
		for _, name := range names {
			participantID := fmt.Sprintf("%s-participant-%s", m.ID, name)
			participantRefs = append(participantRefs, map[string]any{"type": "participant", "id": participantID})
			included = append(included, map[string]any{
				"type": "participant",
				"id":   participantID,
				"attributes": map[string]any{
					"stats": map[string]any{
						"name":        name,
						"playerId":    AccountID(name),
						"kills":       1,
						"damageDealt": 100.5,
						"winPlace":    i + 1,
					},
				},
			})
		}

		included = append(included, map[string]any{
			"type": "roster",
			"id":   rosterID,
			"attributes": map[string]any{
				"stats": map[string]any{"rank": i + 1, "teamId": i + 1},
				"won":   fmt.Sprint(i == 0),
			},
			"relationships": map[string]any{
				"participants": map[string]any{"data": participantRefs},
			},
		})
	}

	var assetRefs []map[string]any
	if m.TelemetryURL != "" {
		assetID := m.ID + "-asset"
		assetRefs = append(assetRefs, map[string]any{"type": "asset", "id": assetID})
		included = append(included, map[string]any{
			"type": "asset",
			"id":   assetID,
			"attributes": map[string]any{
				"URL":  m.TelemetryURL,
				"name": "telemetry",
			},
		})
	}

	return mustJSON(map[string]any{
		"data": map[string]any{
			"type": "match",
			"id":   m.ID,
			"attributes": map[string]any{
				"createdAt":     m.CreatedAt.UTC().Format(time.RFC3339),
				"duration":      1800,
				"gameMode":      m.GameMode,
				"mapName":       m.MapName,
				"matchType":     m.MatchType,
				"isCustomMatch": m.IsCustom,
				"shardId":       "steam",
			},
			"relationships": map[string]any{
				"rosters": map[string]any{"data": rosterRefs},
				"assets":  map[string]any{"data": assetRefs},
			},
		},
		"included": included,
	})
}

// Squads builds n rosters of size players each, named prefix-<roster>-<slot>.
func Squads(prefix string, n, size int) [][]string {
	rosters := make([][]string, n)
	for i := range rosters {
		for j := range size {
			rosters[i] = append(rosters[i], fmt.Sprintf("%s-%d-%d", prefix, i, j))
		}
	}
	return rosters
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
