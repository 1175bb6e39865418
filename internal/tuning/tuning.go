// Package tuning holds the operator-adjustable thresholds and weights used to
// classify matches and rank roster search results.
package tuning

import (
	"errors"
	"fmt"
	"os"
	"pubg-tournament/internal/domain"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Classifier Classifier `yaml:"classifier"`
	Priority   Priority   `yaml:"priority"`
}

type Classifier struct {
	// ranked heuristic
	RankedModeKeywords []string `yaml:"ranked_mode_keywords"`
	RankedPlayersMin   int      `yaml:"ranked_players_min"`
	RankedPlayersMax   int      `yaml:"ranked_players_max"`

	// ratio of full squads above which a lobby looks organised
	FullTeamRatio float64 `yaml:"full_team_ratio"`

	// custom heuristic
	EsportsModeKeywords []string `yaml:"esports_mode_keywords"`
	CustomPlayersMin    int      `yaml:"custom_players_min"`
	CustomPlayersMax    int      `yaml:"custom_players_max"`
	TournamentMaps      []string `yaml:"tournament_maps"`
	CustomScoreMin      int      `yaml:"custom_score_min"`
	Weights             Weights  `yaml:"weights"`

	Rules []Rule `yaml:"rules"`
}

type Weights struct {
	Mode        int `yaml:"mode"`
	PlayerCount int `yaml:"player_count"`
	Map         int `yaml:"map"`
	FullTeams   int `yaml:"full_teams"`
}

// Rule is an expr-lang boolean evaluated before the built-in heuristics.
type Rule struct {
	Name           string `yaml:"name"`
	When           string `yaml:"when"`
	Classification string `yaml:"classification"`
}

type Priority struct {
	CustomFlagBonus float64       `yaml:"custom_flag_bonus"`
	CustomBonus     float64       `yaml:"custom_bonus"`
	RankedBonus     float64       `yaml:"ranked_bonus"`
	RecentBonus     float64       `yaml:"recent_bonus"`
	RecentWindow    time.Duration `yaml:"recent_window"`
}

func Defaults() *Tuning {
	return &Tuning{
		Classifier: Classifier{
			RankedModeKeywords:  []string{"competitive", "ranked"},
			RankedPlayersMin:    60,
			RankedPlayersMax:    64,
			FullTeamRatio:       0.6,
			EsportsModeKeywords: []string{"esports", "tournament", "competitive", "event"},
			CustomPlayersMin:    60,
			CustomPlayersMax:    100,
			TournamentMaps: []string{
				"Baltic_Main",
				"Erangel_Main",
				"Desert_Main",
				"Tiger_Main",
				"DihorOtok_Main",
				"Kiki_Main",
				"Neon_Main",
			},
			CustomScoreMin: 3,
			Weights: Weights{
				Mode:        1,
				PlayerCount: 1,
				Map:         1,
				FullTeams:   2,
			},
		},
		Priority: Priority{
			CustomFlagBonus: 30,
			CustomBonus:     50,
			RankedBonus:     20,
			RecentBonus:     20,
			RecentWindow:    24 * time.Hour,
		},
	}
}

// Load overlays the YAML file at path on top of Defaults. An empty path
// yields the defaults.
func Load(path string) (*Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t *Tuning) Validate() error {
	c := t.Classifier
	var errs []error

	if c.RankedPlayersMin > c.RankedPlayersMax {
		errs = append(errs, fmt.Errorf("ranked_players_min %d exceeds ranked_players_max %d", c.RankedPlayersMin, c.RankedPlayersMax))
	}
	if c.CustomPlayersMin > c.CustomPlayersMax {
		errs = append(errs, fmt.Errorf("custom_players_min %d exceeds custom_players_max %d", c.CustomPlayersMin, c.CustomPlayersMax))
	}
	if c.FullTeamRatio < 0 || c.FullTeamRatio > 1 {
		errs = append(errs, fmt.Errorf("full_team_ratio must be within [0,1], got %v", c.FullTeamRatio))
	}
	if c.CustomScoreMin <= 0 {
		errs = append(errs, fmt.Errorf("custom_score_min must be positive, got %d", c.CustomScoreMin))
	}

	names := make(map[string]struct{}, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: name is required", i))
		} else if _, dup := names[r.Name]; dup {
			errs = append(errs, fmt.Errorf("rules[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = struct{}{}
		if r.When == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: when is required", i))
		}
		if _, err := domain.ParseClassification(r.Classification); err != nil {
			errs = append(errs, fmt.Errorf("rules[%d]: %w", i, err))
		}
	}

	if t.Priority.RecentWindow < 0 {
		errs = append(errs, fmt.Errorf("recent_window must not be negative"))
	}
	return errors.Join(errs...)
}
