package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"pubg-tournament/internal/database"
	"pubg-tournament/internal/db"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/repository"
	"pubg-tournament/internal/service"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTournamentService(t *testing.T, h *harness) *service.TournamentService {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "tournament.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	q := db.New(sqlDB)
	return service.NewTournamentService(
		repository.NewTournamentRepository(sqlDB, q, zerolog.Nop()),
		repository.NewMatchRepository(sqlDB, q, zerolog.Nop()),
		h.roster,
		h.clk,
		zerolog.Nop(),
	)
}

func TestTournament_AssembleAndOverride(t *testing.T) {
	h := newHarness(t)
	svc := newTournamentService(t, h)
	ctx := context.Background()

	h.player("alice", "M1", "M2")
	h.player("bob", "M1")
	h.player("carol", "M1")
	h.match(customMatch("M1", time.Hour, "alice", "bob", "carol"))
	h.match(customMatch("M2", 20*time.Hour, "alice"))

	tour, err := svc.CreateTournament(ctx, "Weekend Cup", "")
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	if tour.Platform != domain.PlatformSteam {
		t.Errorf("platform = %s", tour.Platform)
	}
	if _, err := svc.RegisterTeam(ctx, tour.ID, "Alpha", []string{"alice", "bob"}); err != nil {
		t.Fatalf("RegisterTeam Alpha: %v", err)
	}
	if _, err := svc.RegisterTeam(ctx, tour.ID, "Bravo", []string{"carol"}); err != nil {
		t.Fatalf("RegisterTeam Bravo: %v", err)
	}

	results, err := svc.AssembleResults(ctx, tour.ID, "24h")
	if err != nil {
		t.Fatalf("AssembleResults: %v", err)
	}
	if len(results) != 2 || results[0].Result.Match.ID != "M1" || results[1].Result.Match.ID != "M2" {
		t.Fatalf("results = %+v", results)
	}
	// round-robin across teams: alice, carol, bob
	if got := results[0].Result.MatchedPlayerNames; !slices.Equal(got, []string{"alice", "carol", "bob"}) {
		t.Errorf("M1 matched = %v", got)
	}
	if results[1].Result.PlayerCoverage != 33 {
		t.Errorf("M2 coverage = %d, want 33", results[1].Result.PlayerCoverage)
	}

	if err := svc.OverrideClassification(ctx, tour.ID, "M2", "public"); err != nil {
		t.Fatalf("OverrideClassification: %v", err)
	}
	listed, err := svc.ListResults(ctx, tour.ID)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if listed[1].Effective() != domain.ClassificationPublic || listed[1].Result.Match.Classification != domain.ClassificationCustom {
		t.Errorf("M2 effective %s, classifier %s", listed[1].Effective(), listed[1].Result.Match.Classification)
	}

	// re-assembly keeps the organizer label
	if _, err := svc.AssembleResults(ctx, tour.ID, "24h"); err != nil {
		t.Fatalf("second AssembleResults: %v", err)
	}
	listed, _ = svc.ListResults(ctx, tour.ID)
	if listed[1].Override != domain.ClassificationPublic {
		t.Errorf("override lost after re-assembly: %q", listed[1].Override)
	}
}

func TestTournament_Validation(t *testing.T) {
	h := newHarness(t)
	svc := newTournamentService(t, h)
	ctx := context.Background()

	if _, err := svc.CreateTournament(ctx, "  ", "steam"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("blank name err = %v", err)
	}
	if _, err := svc.CreateTournament(ctx, "Cup", "atari"); !errors.Is(err, domain.ErrInvalidPlatform) {
		t.Errorf("bad platform err = %v", err)
	}

	tour, err := svc.CreateTournament(ctx, "Cup", "kakao")
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	if _, err := svc.RegisterTeam(ctx, tour.ID, "Alpha", []string{"", " "}); !errors.Is(err, domain.ErrEmptyRoster) {
		t.Errorf("empty roster err = %v", err)
	}
	if _, err := svc.AssembleResults(ctx, tour.ID, "24h"); !errors.Is(err, domain.ErrEmptyRoster) {
		t.Errorf("no teams err = %v", err)
	}
	if _, err := svc.AssembleResults(ctx, "missing", "24h"); !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Errorf("missing tournament err = %v", err)
	}
	if _, err := svc.RegisterTeam(ctx, "missing", "Alpha", []string{"alice"}); !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Errorf("register on missing tournament err = %v", err)
	}
	if err := svc.OverrideClassification(ctx, tour.ID, "M1", "SOLO"); !errors.Is(err, domain.ErrInvalidClassification) {
		t.Errorf("bad label err = %v", err)
	}
	if err := svc.OverrideClassification(ctx, tour.ID, "M1", "CUSTOM"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Errorf("unknown match err = %v", err)
	}
	if _, err := svc.ListResults(ctx, "missing"); !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Errorf("list on missing tournament err = %v", err)
	}
}
