package service_test

import (
	"context"
	"errors"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/service"
	"slices"
	"testing"
	"time"
)

func TestSearch_Dispatch(t *testing.T) {
	h := newHarness(t)
	h.player("alice", "M1", "M2")
	h.player("bob", "M1")
	h.match(customMatch("M1", time.Hour, "alice", "bob"))
	h.match(publicMatch("M2", 2*time.Hour, "alice"))
	ctx := context.Background()

	single, err := h.search.Search(ctx, service.SearchRequest{PlayerName: "alice", TimeRange: "24h"})
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if single.Results != nil || !slices.Equal(matchIDs(single.Matches), []string{"M1", "M2"}) {
		t.Errorf("single = %v / %v", matchIDs(single.Matches), single.Results)
	}
	if single.Meta.Platform != domain.PlatformSteam || single.Meta.Total != 2 {
		t.Errorf("meta = %+v", single.Meta)
	}

	roster, err := h.search.Search(ctx, service.SearchRequest{PlayerNames: []string{"alice", "bob"}, TimeRange: "24h"})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if roster.Matches != nil || !slices.Equal(resultIDs(roster.Results), []string{"M1"}) {
		t.Errorf("roster = %v / %v", roster.Matches, resultIDs(roster.Results))
	}
	if roster.Meta.Truncated || !slices.Equal(roster.Meta.Players, []string{"alice", "bob"}) {
		t.Errorf("meta = %+v", roster.Meta)
	}
}

func TestSearch_DefaultTimeRangeIs14Days(t *testing.T) {
	h := newHarness(t)
	h.player("alice", "M1")
	h.match(customMatch("M1", 10*24*time.Hour, "alice"))

	got, err := h.search.Search(context.Background(), service.SearchRequest{PlayerName: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Meta.TimeRange != domain.TimeRange14d || len(got.Matches) != 1 {
		t.Errorf("range %s, %d matches", got.Meta.TimeRange, len(got.Matches))
	}
}

func TestSearch_Truncated(t *testing.T) {
	h := newHarness(t)
	names := []string{"p1", "p2", "p3", "p4", "p5", "p6"}

	got, err := h.search.Search(context.Background(), service.SearchRequest{PlayerNames: names})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Meta.Truncated || len(got.Meta.Players) != 5 {
		t.Errorf("meta = %+v", got.Meta)
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  service.SearchRequest
		want error
	}{
		{"platform", service.SearchRequest{PlayerName: "alice", Platform: "dreamcast"}, domain.ErrInvalidPlatform},
		{"time range", service.SearchRequest{PlayerName: "alice", TimeRange: "3d"}, domain.ErrInvalidTimeRange},
		{"no names", service.SearchRequest{PlayerNames: []string{" "}}, domain.ErrEmptyRoster},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.search.Search(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if h.tr.TotalCalls() != 0 {
		t.Errorf("invalid requests reached the upstream %d times", h.tr.TotalCalls())
	}
}
