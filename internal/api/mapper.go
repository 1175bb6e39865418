package api

import (
	"encoding/json"
	"fmt"
	"pubg-tournament/internal/domain"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

const telemetryAssetPath = `$.included[?(@.type=="asset")].attributes.URL`

// MatchIDs returns the player's distinct match references, most recent first
// as the API lists them.
func (p *PlayerResource) MatchIDs() []string {
	ids := make([]string, 0, len(p.Relationships.Matches.Data))
	seen := make(map[string]struct{}, len(p.Relationships.Matches.Data))
	for _, ref := range p.Relationships.Matches.Data {
		if ref.ID == "" {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	return ids
}

// ToMatchRecord flattens a match document and its included rosters,
// participants and telemetry asset. Classification is left UNKNOWN.
func ToMatchRecord(resp *MatchResponse) (domain.MatchRecord, error) {
	if resp.Data.ID == "" {
		return domain.MatchRecord{}, fmt.Errorf("match document has no id")
	}
	attrs := resp.Data.Attributes

	record := domain.MatchRecord{
		ID:             resp.Data.ID,
		CreatedAt:      attrs.CreatedAt.UTC(),
		MapName:        attrs.MapName,
		GameMode:       attrs.GameMode,
		MatchType:      attrs.MatchType,
		IsCustomMatch:  attrs.IsCustomMatch,
		Classification: domain.ClassificationUnknown,
	}

	byKey := make(map[string]*IncludedResource, len(resp.Included))
	for i := range resp.Included {
		inc := &resp.Included[i]
		byKey[inc.Type+"/"+inc.ID] = inc
	}

	for i := range resp.Included {
		inc := &resp.Included[i]
		if inc.Type != "participant" || len(inc.Attributes) == 0 {
			continue
		}
		var pa ParticipantAttributes
		if err := json.Unmarshal(inc.Attributes, &pa); err != nil {
			return domain.MatchRecord{}, fmt.Errorf("failed to decode participant %s: %w", inc.ID, err)
		}
		record.Participants = append(record.Participants, domain.Participant{
			ID:          inc.ID,
			PlayerID:    pa.Stats.PlayerID,
			Name:        pa.Stats.Name,
			Kills:       pa.Stats.Kills,
			DamageDealt: pa.Stats.DamageDealt,
			WinPlace:    pa.Stats.WinPlace,
		})
	}
	record.PlayerCount = len(record.Participants)

	rosterRefs := resp.Data.Relationships.Rosters.Data
	if len(rosterRefs) == 0 {
		// some shards omit the relationship; fall back to included order
		for _, inc := range resp.Included {
			if inc.Type == "roster" {
				rosterRefs = append(rosterRefs, ResourceRef{Type: inc.Type, ID: inc.ID})
			}
		}
	}
	for _, ref := range rosterRefs {
		inc, ok := byKey["roster/"+ref.ID]
		if !ok {
			continue
		}
		var ra RosterAttributes
		if err := json.Unmarshal(inc.Attributes, &ra); err != nil {
			return domain.MatchRecord{}, fmt.Errorf("failed to decode roster %s: %w", inc.ID, err)
		}
		roster := domain.Roster{
			TeamRefID: inc.ID,
			Rank:      ra.Stats.Rank,
			Won:       strings.EqualFold(ra.Won, "true"),
		}
		for _, p := range inc.Relationships.Participants.Data {
			roster.ParticipantIDs = append(roster.ParticipantIDs, p.ID)
		}
		record.Rosters = append(record.Rosters, roster)
	}

	for _, ref := range resp.Data.Relationships.Assets.Data {
		inc, ok := byKey["asset/"+ref.ID]
		if !ok {
			continue
		}
		var aa AssetAttributes
		if err := json.Unmarshal(inc.Attributes, &aa); err == nil && aa.URL != "" {
			record.TelemetryURL = aa.URL
			break
		}
	}

	return record, nil
}

// TelemetryURL finds the telemetry asset link in a raw match document.
func TelemetryURL(matchBody []byte) (string, error) {
	var data any
	if err := json.Unmarshal(matchBody, &data); err != nil {
		return "", fmt.Errorf("failed to decode match document: %w", err)
	}
	result, err := jsonpath.Get(telemetryAssetPath, data)
	if err != nil {
		return "", fmt.Errorf("failed to find telemetry asset: %w", err)
	}

	switch v := result.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("match document has no telemetry asset")
}
