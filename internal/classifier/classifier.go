// Package classifier labels fetched matches as RANKED, CUSTOM or PUBLIC.
//
// Rules are evaluated in order and the first one with an opinion wins: the
// upstream's declared type, operator expressions from the tuning file, then
// the ranked and custom heuristics, then PUBLIC.
package classifier

import (
	"fmt"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/tuning"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type Rule struct {
	Name string
	// Eval returns ok=false when the rule has no opinion.
	Eval func(m *domain.MatchRecord) (c domain.Classification, ok bool)
}

type Classifier struct {
	rules []Rule
}

func New(cfg tuning.Classifier) (*Classifier, error) {
	rules := []Rule{{Name: "declared-type", Eval: declaredType}}

	for _, r := range cfg.Rules {
		rule, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	rules = append(rules,
		Rule{Name: "ranked-heuristic", Eval: rankedHeuristic(cfg)},
		Rule{Name: "custom-heuristic", Eval: customHeuristic(cfg)},
		Rule{Name: "fallback", Eval: func(*domain.MatchRecord) (domain.Classification, bool) {
			return domain.ClassificationPublic, true
		}},
	)
	return &Classifier{rules: rules}, nil
}

func (c *Classifier) Classify(m *domain.MatchRecord) domain.Classification {
	label, _ := c.Explain(m)
	return label
}

// Explain also names the rule that decided.
func (c *Classifier) Explain(m *domain.MatchRecord) (domain.Classification, string) {
	for _, r := range c.rules {
		if label, ok := r.Eval(m); ok {
			return label, r.Name
		}
	}
	return domain.ClassificationPublic, "fallback"
}

func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

func declaredType(m *domain.MatchRecord) (domain.Classification, bool) {
	switch strings.ToLower(strings.TrimSpace(m.MatchType)) {
	case "competitive":
		return domain.ClassificationRanked, true
	case "custom":
		return domain.ClassificationCustom, true
	}
	if m.IsCustomMatch {
		return domain.ClassificationCustom, true
	}
	if strings.EqualFold(strings.TrimSpace(m.MatchType), "official") {
		return domain.ClassificationPublic, true
	}
	return "", false
}

func rankedHeuristic(cfg tuning.Classifier) func(*domain.MatchRecord) (domain.Classification, bool) {
	return func(m *domain.MatchRecord) (domain.Classification, bool) {
		if containsAny(m.GameMode, cfg.RankedModeKeywords) {
			return domain.ClassificationRanked, true
		}
		if between(m.PlayerCount, cfg.RankedPlayersMin, cfg.RankedPlayersMax) && m.FullTeamRatio() > cfg.FullTeamRatio {
			return domain.ClassificationRanked, true
		}
		return "", false
	}
}

func customHeuristic(cfg tuning.Classifier) func(*domain.MatchRecord) (domain.Classification, bool) {
	maps := make(map[string]struct{}, len(cfg.TournamentMaps))
	for _, name := range cfg.TournamentMaps {
		maps[strings.ToLower(name)] = struct{}{}
	}

	return func(m *domain.MatchRecord) (domain.Classification, bool) {
		score := 0
		if containsAny(m.GameMode, cfg.EsportsModeKeywords) {
			score += cfg.Weights.Mode
		}
		if between(m.PlayerCount, cfg.CustomPlayersMin, cfg.CustomPlayersMax) {
			score += cfg.Weights.PlayerCount
		}
		if _, ok := maps[strings.ToLower(m.MapName)]; ok && m.MapName != "" {
			score += cfg.Weights.Map
		}
		if m.FullTeamRatio() > cfg.FullTeamRatio {
			score += cfg.Weights.FullTeams
		}
		if score >= cfg.CustomScoreMin {
			return domain.ClassificationCustom, true
		}
		return "", false
	}
}

// env exposes a match to tuning-file expressions.
func env(m *domain.MatchRecord) map[string]any {
	return map[string]any{
		"gameMode":      m.GameMode,
		"mapName":       m.MapName,
		"matchType":     m.MatchType,
		"playerCount":   m.PlayerCount,
		"rosterCount":   len(m.Rosters),
		"fullTeamRatio": m.FullTeamRatio(),
		"isCustomMatch": m.IsCustomMatch,
	}
}

func compileRule(r tuning.Rule) (Rule, error) {
	label, err := domain.ParseClassification(r.Classification)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	program, err := expr.Compile(r.When, expr.Env(env(&domain.MatchRecord{})), expr.AsBool())
	if err != nil {
		return Rule{}, fmt.Errorf("failed to compile rule %q: %w", r.Name, err)
	}
	return Rule{Name: "expr:" + r.Name, Eval: exprEval(program, label)}, nil
}

func exprEval(program *vm.Program, label domain.Classification) func(*domain.MatchRecord) (domain.Classification, bool) {
	return func(m *domain.MatchRecord) (domain.Classification, bool) {
		out, err := expr.Run(program, env(m))
		if err != nil {
			return "", false
		}
		if matched, ok := out.(bool); ok && matched {
			return label, true
		}
		return "", false
	}
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func between(n, lo, hi int) bool {
	return n >= lo && n <= hi
}
