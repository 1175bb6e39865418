package classifier_test

import (
	"fmt"
	"testing"

	"pubg-tournament/internal/classifier"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/tuning"
)

// lobby builds a match with one roster per entry of squadSizes.
func lobby(mode, mapName string, squadSizes ...int) domain.MatchRecord {
	m := domain.MatchRecord{ID: "m", GameMode: mode, MapName: mapName}
	for i, size := range squadSizes {
		r := domain.Roster{TeamRefID: fmt.Sprintf("r%d", i)}
		for j := range size {
			r.ParticipantIDs = append(r.ParticipantIDs, fmt.Sprintf("p%d-%d", i, j))
		}
		m.Rosters = append(m.Rosters, r)
		m.PlayerCount += size
	}
	return m
}

func repeat(size, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = size
	}
	return out
}

func newClassifier(t *testing.T, cfg tuning.Classifier) *classifier.Classifier {
	t.Helper()
	c, err := classifier.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestExplain(t *testing.T) {
	c := newClassifier(t, tuning.Defaults().Classifier)

	declared := func(matchType string, custom bool) domain.MatchRecord {
		m := lobby("squad-fpp", "Erangel_Main", repeat(4, 20)...)
		m.MatchType = matchType
		m.IsCustomMatch = custom
		return m
	}

	tests := []struct {
		name     string
		match    domain.MatchRecord
		want     domain.Classification
		wantRule string
	}{
		{"competitive type", declared("competitive", false), domain.ClassificationRanked, "declared-type"},
		{"custom type", declared("custom", false), domain.ClassificationCustom, "declared-type"},
		{"custom flag beats official", declared("official", true), domain.ClassificationCustom, "declared-type"},
		{"official type wins over heuristics", declared("official", false), domain.ClassificationPublic, "declared-type"},
		{"ranked mode naming", lobby("ranked-squad-fpp", "Kiki_Main", 4, 4), domain.ClassificationRanked, "ranked-heuristic"},
		{"ranked lobby shape", lobby("squad-fpp", "Savage_Main", repeat(4, 16)...), domain.ClassificationRanked, "ranked-heuristic"},
		{"organised full lobby", lobby("squad-fpp", "Erangel_Main", repeat(4, 20)...), domain.ClassificationCustom, "custom-heuristic"},
		{"esports mode on tournament map", lobby("esports-squad-fpp", "Baltic_Main", repeat(2, 50)...), domain.ClassificationCustom, "custom-heuristic"},
		{"public duo lobby", lobby("duo-fpp", "Erangel_Main", repeat(2, 50)...), domain.ClassificationPublic, "fallback"},
		{"zero rosters", domain.MatchRecord{GameMode: "squad", MapName: "Erangel_Main", PlayerCount: 70}, domain.ClassificationPublic, "fallback"},
		{"empty record", domain.MatchRecord{}, domain.ClassificationPublic, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := c.Explain(&tt.match)
			if got != tt.want || rule != tt.wantRule {
				t.Errorf("Explain = %s by %q, want %s by %q", got, rule, tt.want, tt.wantRule)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newClassifier(t, tuning.Defaults().Classifier)
	m := lobby("event-squad", "Neon_Main", repeat(4, 15)...)

	first := c.Classify(&m)
	for range 10 {
		if got := c.Classify(&m); got != first {
			t.Fatalf("Classify changed from %s to %s", first, got)
		}
	}
}

func TestClassify_ExprRules(t *testing.T) {
	cfg := tuning.Defaults().Classifier
	cfg.Rules = []tuning.Rule{
		{Name: "training-range", When: `mapName == "Range_Main"`, Classification: "CUSTOM"},
		{Name: "small-lobby", When: `playerCount < 20 && rosterCount > 0`, Classification: "public"},
	}
	c := newClassifier(t, cfg)

	m := lobby("squad", "Range_Main", 4, 4)
	if got, rule := c.Explain(&m); got != domain.ClassificationCustom || rule != "expr:training-range" {
		t.Errorf("Explain = %s by %q, want CUSTOM by expr:training-range", got, rule)
	}

	small := lobby("ranked-squad", "Erangel_Main", 4, 4)
	if got, rule := c.Explain(&small); got != domain.ClassificationPublic || rule != "expr:small-lobby" {
		t.Errorf("Explain = %s by %q, expr rules must precede heuristics", got, rule)
	}

	declared := lobby("squad", "Range_Main", 4)
	declared.MatchType = "competitive"
	if got := c.Classify(&declared); got != domain.ClassificationRanked {
		t.Errorf("declared type must precede expr rules, got %s", got)
	}
}

func TestNew_InvalidRule(t *testing.T) {
	cfg := tuning.Defaults().Classifier
	cfg.Rules = []tuning.Rule{{Name: "broken", When: `mapName ==`, Classification: "CUSTOM"}}
	if _, err := classifier.New(cfg); err == nil {
		t.Error("expected compile error")
	}

	cfg.Rules = []tuning.Rule{{Name: "not-bool", When: `playerCount + 1`, Classification: "CUSTOM"}}
	if _, err := classifier.New(cfg); err == nil {
		t.Error("expected error for a non-boolean expression")
	}
}

func TestHolder_Apply(t *testing.T) {
	h, err := classifier.NewHolder(tuning.NewStore(nil))
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	m := lobby("squad", "Range_Main", 4, 4)
	if got := h.Classify(&m); got != domain.ClassificationPublic {
		t.Fatalf("Classify = %s, want PUBLIC before reload", got)
	}

	next := tuning.Defaults()
	next.Classifier.Rules = []tuning.Rule{{Name: "range", When: `mapName == "Range_Main"`, Classification: "CUSTOM"}}
	if err := h.Apply(next); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := h.Classify(&m); got != domain.ClassificationCustom {
		t.Errorf("Classify = %s, want CUSTOM after reload", got)
	}

	bad := tuning.Defaults()
	bad.Classifier.Rules = []tuning.Rule{{Name: "bad", When: `(`, Classification: "CUSTOM"}}
	if err := h.Apply(bad); err == nil {
		t.Fatal("expected Apply to reject an invalid rule")
	}
	if got := h.Classify(&m); got != domain.ClassificationCustom {
		t.Errorf("a rejected reload must keep the previous classifier, got %s", got)
	}
}
