package tuning_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pubg-tournament/internal/tuning"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	got, err := tuning.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := tuning.Defaults()
	if got.Classifier.CustomScoreMin != d.Classifier.CustomScoreMin || got.Priority.CustomBonus != 50 {
		t.Errorf("Load(\"\") = %+v, want defaults", got)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	writeFile(t, path, `
classifier:
  full_team_ratio: 0.75
  tournament_maps: [Baltic_Main]
  rules:
    - name: scrims
      when: 'gameMode == "squad-fpp" && isCustomMatch'
      classification: custom
priority:
  recent_window: 12h
`)

	got, err := tuning.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := got.Classifier
	if c.FullTeamRatio != 0.75 {
		t.Errorf("FullTeamRatio = %v, want 0.75", c.FullTeamRatio)
	}
	if len(c.TournamentMaps) != 1 || c.TournamentMaps[0] != "Baltic_Main" {
		t.Errorf("TournamentMaps = %v", c.TournamentMaps)
	}
	if c.RankedPlayersMin != 60 || c.Weights.FullTeams != 2 {
		t.Errorf("unset fields must keep defaults, got %+v", c)
	}
	if len(c.Rules) != 1 || c.Rules[0].Name != "scrims" {
		t.Errorf("Rules = %+v", c.Rules)
	}
	if got.Priority.RecentWindow != 12*time.Hour || got.Priority.CustomBonus != 50 {
		t.Errorf("Priority = %+v", got.Priority)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "classifier: [",
		"ratio":          "classifier:\n  full_team_ratio: 1.5\n",
		"bands":          "classifier:\n  custom_players_min: 120\n",
		"label":          "classifier:\n  rules:\n    - {name: x, when: 'true', classification: SOLO}\n",
		"missing when":   "classifier:\n  rules:\n    - {name: x, classification: CUSTOM}\n",
		"duplicate name": "classifier:\n  rules:\n    - {name: x, when: 'true', classification: CUSTOM}\n    - {name: x, when: 'true', classification: PUBLIC}\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			writeFile(t, path, content)
			if _, err := tuning.Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := tuning.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestStore(t *testing.T) {
	s := tuning.NewStore(nil)
	if s.Get() == nil {
		t.Fatal("NewStore(nil) must publish defaults")
	}
	next := tuning.Defaults()
	next.Priority.CustomBonus = 99
	s.Set(next)
	if s.Get().Priority.CustomBonus != 99 {
		t.Error("Set was not published")
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	writeFile(t, path, "priority:\n  custom_bonus: 50\n")

	var applied atomic.Value
	w, err := tuning.NewWatcher(path, 50*time.Millisecond, zerolog.Nop(), func(tn *tuning.Tuning) error {
		applied.Store(tn.Priority.CustomBonus)
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeFile(t, path, "priority:\n  custom_bonus: 70\n")
	time.Sleep(500 * time.Millisecond)

	if v, _ := applied.Load().(float64); v != 70 {
		t.Errorf("applied custom_bonus = %v, want 70", applied.Load())
	}
}

func TestWatcher_KeepsPreviousOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	writeFile(t, path, "priority:\n  custom_bonus: 50\n")

	var calls atomic.Int32
	w, err := tuning.NewWatcher(path, 50*time.Millisecond, zerolog.Nop(), func(*tuning.Tuning) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeFile(t, path, "classifier:\n  full_team_ratio: 7\n")
	time.Sleep(500 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("apply called %d times for an invalid file", calls.Load())
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	writeFile(t, path, "")

	var calls atomic.Int32
	w, err := tuning.NewWatcher(path, 50*time.Millisecond, zerolog.Nop(), func(*tuning.Tuning) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeFile(t, filepath.Join(dir, "other.yaml"), "priority: {}")
	time.Sleep(300 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("apply called %d times for an unrelated file", calls.Load())
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	tn := tuning.Defaults()
	tn.Classifier.FullTeamRatio = -1
	tn.Classifier.CustomScoreMin = 0

	err := tn.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "full_team_ratio") || !strings.Contains(msg, "custom_score_min") {
		t.Errorf("error %q should list every problem", msg)
	}
}
