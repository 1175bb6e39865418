package service_test

import (
	"pubg-tournament/internal/api"
	"pubg-tournament/internal/cache"
	"pubg-tournament/internal/classifier"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/service"
	"pubg-tournament/internal/testutil"
	"pubg-tournament/internal/tuning"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type harness struct {
	tr       *testutil.FakeTransport
	clk      *testutil.FakeClock
	store    *cache.MemoryStore
	source   *service.MatchSource
	resolver *service.MatchResolver
	roster   *service.RosterSearch
	details  *service.MatchDetailService
	search   *service.SearchService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tr := testutil.NewFakeTransport()
	clk := testutil.NewFakeClock(now)
	pubg := api.NewPUBGClient(testutil.Config(), testutil.NewFetchClient(tr, clk))
	store := cache.NewMemoryStore(clk)
	tunings := tuning.NewStore(nil)

	holder, err := classifier.NewHolder(tunings)
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}

	source := service.NewMatchSource(pubg, store, zerolog.Nop())
	resolver := service.NewMatchResolver(source, holder, clk, zerolog.Nop())
	roster := service.NewRosterSearch(resolver, tunings, clk, zerolog.Nop())

	return &harness{
		tr:       tr,
		clk:      clk,
		store:    store,
		source:   source,
		resolver: resolver,
		roster:   roster,
		details:  service.NewMatchDetailService(source, holder, zerolog.Nop()),
		search:   service.NewSearchService(resolver, roster, zerolog.Nop()),
	}
}

func playersRoute(name string) string {
	return "/shards/steam/players?filter[playerNames]=" + name
}

func playerRoute(name string) string {
	return "/shards/steam/players/" + testutil.AccountID(name)
}

func matchRoute(id string) string {
	return "/shards/steam/matches/" + id
}

// player registers name with the given match references, newest first.
func (h *harness) player(name string, matchIDs ...string) {
	p := testutil.PlayerFixture{Name: name, MatchIDs: matchIDs}
	h.tr.On(playersRoute(name), testutil.OK(testutil.PlayersBody(p)))
	h.tr.On(playerRoute(name), testutil.OK(testutil.PlayerBody(p)))
}

func (h *harness) match(m testutil.MatchFixture) {
	h.tr.On(matchRoute(m.ID), testutil.OK(testutil.MatchBody(m)))
}

// customMatch is a declared custom match created age ago, with players spread
// over full squads.
func customMatch(id string, age time.Duration, players ...string) testutil.MatchFixture {
	rosters := testutil.Squads(id, 15, 4)
	rosters = append(rosters, players)
	return testutil.MatchFixture{
		ID:        id,
		CreatedAt: now.Add(-age),
		MapName:   "Baltic_Main",
		GameMode:  "squad-fpp",
		MatchType: "custom",
		IsCustom:  true,
		Rosters:   rosters,
	}
}

func publicMatch(id string, age time.Duration, players ...string) testutil.MatchFixture {
	return testutil.MatchFixture{
		ID:        id,
		CreatedAt: now.Add(-age),
		MapName:   "Desert_Main",
		GameMode:  "squad",
		MatchType: "official",
		Rosters:   [][]string{players},
	}
}

func matchIDs(matches []domain.MatchRecord) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}

func resultIDs(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Match.ID
	}
	return out
}
