package api_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"pubg-tournament/internal/api"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/fetch"
	"pubg-tournament/internal/testutil"
)

var epoch = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newClient(tr *testutil.FakeTransport) *api.PUBGClient {
	return api.NewPUBGClient(testutil.Config(), testutil.NewFetchClient(tr, testutil.NewFakeClock(epoch)))
}

func TestPlayersByName(t *testing.T) {
	body := testutil.PlayersBody(testutil.PlayerFixture{Name: "Shroud TV", MatchIDs: []string{"m2", "m1"}})
	tr := testutil.NewFakeTransport().On("/shards/kakao/players?filter[playerNames]=Shroud TV", testutil.OK(body))

	got, err := newClient(tr).PlayersByName(context.Background(), domain.PlatformKakao, "Shroud TV")
	if err != nil {
		t.Fatalf("PlayersByName: %v", err)
	}

	players, err := api.Decode[api.PlayersResponse](got)
	if err != nil {
		t.Fatal(err)
	}
	if len(players.Data) != 1 || players.Data[0].ID != "account.Shroud TV" {
		t.Fatalf("players = %+v", players.Data)
	}
	if ids := players.Data[0].MatchIDs(); len(ids) != 2 || ids[0] != "m2" {
		t.Errorf("MatchIDs = %v", ids)
	}
	if auth := tr.AuthHeaders(); len(auth) != 1 || auth[0] != "Bearer "+testutil.APIKey {
		t.Errorf("Authorization headers = %v", auth)
	}
}

func TestMatchIDs_Distinct(t *testing.T) {
	body := testutil.PlayerBody(testutil.PlayerFixture{Name: "alice", MatchIDs: []string{"m2", "m1", "m2", "", "m1"}})
	player, err := api.Decode[api.PlayerResponse](body)
	if err != nil {
		t.Fatal(err)
	}
	if ids := player.Data.MatchIDs(); !slices.Equal(ids, []string{"m2", "m1"}) {
		t.Errorf("MatchIDs = %v, want [m2 m1]", ids)
	}
}

func TestPlayer_NotFound(t *testing.T) {
	tr := testutil.NewFakeTransport()

	_, err := newClient(tr).Player(context.Background(), domain.PlatformSteam, "account.ghost")

	var ce *fetch.ClientError
	if !errors.As(err, &ce) || ce.Status != 404 {
		t.Fatalf("err = %v, want 404 ClientError", err)
	}
	if tr.Calls("/shards/steam/players/account.ghost") != 1 {
		t.Error("expected exactly one call for a 404")
	}
}

func TestTelemetry_SendsNoAPIKey(t *testing.T) {
	tr := testutil.NewFakeTransport().On("/bluehole-pubg/steam/2026/10/17/telemetry.json", testutil.OK([]byte(`[{"_T":"LogMatchStart"}]`)))

	body, err := newClient(tr).Telemetry(context.Background(), "https://telemetry-cdn.pubg.test/bluehole-pubg/steam/2026/10/17/telemetry.json")
	if err != nil {
		t.Fatalf("Telemetry: %v", err)
	}
	if string(body) != `[{"_T":"LogMatchStart"}]` {
		t.Errorf("body = %s", body)
	}
	if auth := tr.AuthHeaders(); len(auth) != 1 || auth[0] != "" {
		t.Errorf("telemetry request carried Authorization %v", auth)
	}
}

func TestToMatchRecord(t *testing.T) {
	created := epoch.Add(-2 * time.Hour)
	body := testutil.MatchBody(testutil.MatchFixture{
		ID:           "m1",
		CreatedAt:    created,
		MapName:      "Baltic_Main",
		GameMode:     "squad-fpp",
		MatchType:    "official",
		Rosters:      [][]string{{"alice", "bob", "carol", "dave"}, {"erin", "frank"}},
		TelemetryURL: "https://telemetry-cdn.pubg.test/m1.json",
	})

	resp, err := api.Decode[api.MatchResponse](body)
	if err != nil {
		t.Fatal(err)
	}
	m, err := api.ToMatchRecord(resp)
	if err != nil {
		t.Fatalf("ToMatchRecord: %v", err)
	}

	if m.ID != "m1" || m.MapName != "Baltic_Main" || m.GameMode != "squad-fpp" || m.MatchType != "official" {
		t.Errorf("attributes = %+v", m)
	}
	if !m.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, created)
	}
	if m.PlayerCount != 6 || len(m.Participants) != 6 {
		t.Errorf("PlayerCount = %d, participants = %d; want 6", m.PlayerCount, len(m.Participants))
	}
	if len(m.Rosters) != 2 {
		t.Fatalf("rosters = %d, want 2", len(m.Rosters))
	}
	if !m.Rosters[0].Won || m.Rosters[1].Won {
		t.Errorf("won flags = %v, %v", m.Rosters[0].Won, m.Rosters[1].Won)
	}
	if !m.Rosters[0].IsFullSquad() || m.Rosters[1].IsFullSquad() {
		t.Error("expected only the first roster to be a full squad")
	}
	if got := m.FullTeamRatio(); got != 0.5 {
		t.Errorf("FullTeamRatio = %v, want 0.5", got)
	}
	if m.TelemetryURL != "https://telemetry-cdn.pubg.test/m1.json" {
		t.Errorf("TelemetryURL = %q", m.TelemetryURL)
	}
	if m.Classification != domain.ClassificationUnknown {
		t.Errorf("Classification = %q, want UNKNOWN", m.Classification)
	}
}

func TestToMatchRecord_MissingID(t *testing.T) {
	if _, err := api.ToMatchRecord(&api.MatchResponse{}); err == nil {
		t.Fatal("expected error for a document without id")
	}
}

func TestTelemetryURL(t *testing.T) {
	withAsset := testutil.MatchBody(testutil.MatchFixture{
		ID:           "m1",
		CreatedAt:    epoch,
		Rosters:      testutil.Squads("p", 2, 4),
		TelemetryURL: "https://telemetry-cdn.pubg.test/m1.json",
	})
	got, err := api.TelemetryURL(withAsset)
	if err != nil {
		t.Fatalf("TelemetryURL: %v", err)
	}
	if got != "https://telemetry-cdn.pubg.test/m1.json" {
		t.Errorf("TelemetryURL = %q", got)
	}

	withoutAsset := testutil.MatchBody(testutil.MatchFixture{ID: "m2", CreatedAt: epoch, Rosters: testutil.Squads("p", 1, 1)})
	if _, err := api.TelemetryURL(withoutAsset); err == nil {
		t.Error("expected error when no asset is included")
	}

	if _, err := api.TelemetryURL([]byte("{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
