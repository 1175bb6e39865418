package server

import (
	"context"
	"fmt"
	"net/http"
	"pubg-tournament/internal/classifier"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/ratelimit"
	"pubg-tournament/internal/service"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const TrackerPath = "/pubg.v1.TournamentTracker/"

const (
	SearchMatchesProcedure          = TrackerPath + "SearchMatches"
	GetMatchDetailsProcedure        = TrackerPath + "GetMatchDetails"
	GetTelemetryProcedure           = TrackerPath + "GetTelemetry"
	CreateTournamentProcedure       = TrackerPath + "CreateTournament"
	RegisterTeamProcedure           = TrackerPath + "RegisterTeam"
	GetTournamentProcedure          = TrackerPath + "GetTournament"
	AssembleResultsProcedure        = TrackerPath + "AssembleResults"
	ListResultsProcedure            = TrackerPath + "ListResults"
	OverrideClassificationProcedure = TrackerPath + "OverrideClassification"
	GetUpstreamStatusProcedure      = TrackerPath + "GetUpstreamStatus"
)

type TrackerServer struct {
	searchSvc      *service.SearchService
	matchDetailSvc *service.MatchDetailService
	tournamentSvc  *service.TournamentService
	source         *service.MatchSource
	limiter        *ratelimit.Limiter
	classifier     *classifier.Holder
	logger         zerolog.Logger
}

func NewTrackerServer(
	searchSvc *service.SearchService,
	matchDetailSvc *service.MatchDetailService,
	tournamentSvc *service.TournamentService,
	source *service.MatchSource,
	limiter *ratelimit.Limiter,
	holder *classifier.Holder,
	logger zerolog.Logger,
) *TrackerServer {
	return &TrackerServer{
		searchSvc:      searchSvc,
		matchDetailSvc: matchDetailSvc,
		tournamentSvc:  tournamentSvc,
		source:         source,
		limiter:        limiter,
		classifier:     holder,
		logger:         logger,
	}
}

// Handler mounts every procedure under TrackerPath.
func (s *TrackerServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(errorInterceptor()),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SearchMatchesProcedure, connect.NewUnaryHandler(SearchMatchesProcedure, s.SearchMatches, opts...))
	mux.Handle(GetMatchDetailsProcedure, connect.NewUnaryHandler(GetMatchDetailsProcedure, s.GetMatchDetails, opts...))
	mux.Handle(GetTelemetryProcedure, connect.NewUnaryHandler(GetTelemetryProcedure, s.GetTelemetry, opts...))
	mux.Handle(CreateTournamentProcedure, connect.NewUnaryHandler(CreateTournamentProcedure, s.CreateTournament, opts...))
	mux.Handle(RegisterTeamProcedure, connect.NewUnaryHandler(RegisterTeamProcedure, s.RegisterTeam, opts...))
	mux.Handle(GetTournamentProcedure, connect.NewUnaryHandler(GetTournamentProcedure, s.GetTournament, opts...))
	mux.Handle(AssembleResultsProcedure, connect.NewUnaryHandler(AssembleResultsProcedure, s.AssembleResults, opts...))
	mux.Handle(ListResultsProcedure, connect.NewUnaryHandler(ListResultsProcedure, s.ListResults, opts...))
	mux.Handle(OverrideClassificationProcedure, connect.NewUnaryHandler(OverrideClassificationProcedure, s.OverrideClassification, opts...))
	mux.Handle(GetUpstreamStatusProcedure, connect.NewUnaryHandler(GetUpstreamStatusProcedure, s.GetUpstreamStatus, opts...))
	return TrackerPath, mux
}

func (s *TrackerServer) SearchMatches(ctx context.Context, req *connect.Request[SearchMatchesRequest]) (*connect.Response[SearchMatchesResponse], error) {
	start := time.Now()
	resp, err := s.searchSvc.Search(ctx, service.SearchRequest{
		PlayerName:      req.Msg.PlayerName,
		PlayerNames:     req.Msg.PlayerNames,
		Platform:        req.Msg.Platform,
		TimeRange:       req.Msg.TimeRange,
		CustomMatchOnly: req.Msg.CustomMatchOnly,
	})
	if err != nil {
		return nil, err
	}

	out := &SearchMatchesResponse{Meta: resp.Meta}
	if resp.Results != nil {
		out.Data = resp.Results
	} else {
		out.Data = resp.Matches
	}

	zerolog.Ctx(ctx).Debug().
		Strs("players", resp.Meta.Players).
		Int("total", resp.Meta.Total).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("search served")
	return connect.NewResponse(out), nil
}

func (s *TrackerServer) GetMatchDetails(ctx context.Context, req *connect.Request[GetMatchDetailsRequest]) (*connect.Response[domain.MatchRecord], error) {
	platform, err := domain.ParsePlatform(req.Msg.Platform)
	if err != nil {
		return nil, err
	}
	m, err := s.matchDetailSvc.GetMatchDetails(ctx, strings.TrimSpace(req.Msg.MatchID), platform, req.Msg.BypassCache)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(m), nil
}

// GetTelemetry answers a Struct {matchId, telemetryUrl, events}; events is the
// upstream document passed through untouched.
func (s *TrackerServer) GetTelemetry(ctx context.Context, req *connect.Request[GetTelemetryRequest]) (*connect.Response[structpb.Struct], error) {
	platform, err := domain.ParsePlatform(req.Msg.Platform)
	if err != nil {
		return nil, err
	}
	tel, err := s.matchDetailSvc.GetTelemetry(ctx, strings.TrimSpace(req.Msg.MatchID), strings.TrimSpace(req.Msg.TelemetryURL), platform)
	if err != nil {
		return nil, err
	}

	events, err := telemetryEvents(tel.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to decode telemetry for %s: %w", tel.MatchID, err)
	}
	return connect.NewResponse(&structpb.Struct{Fields: map[string]*structpb.Value{
		"matchId":      structpb.NewStringValue(tel.MatchID),
		"telemetryUrl": structpb.NewStringValue(tel.TelemetryURL),
		"events":       events,
	}}), nil
}

// telemetryEvents accepts the usual event array and, leniently, any other JSON value.
func telemetryEvents(raw []byte) (*structpb.Value, error) {
	var list structpb.ListValue
	if err := protojson.Unmarshal(raw, &list); err == nil {
		return structpb.NewListValue(&list), nil
	}
	var v structpb.Value
	if err := protojson.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *TrackerServer) CreateTournament(ctx context.Context, req *connect.Request[CreateTournamentRequest]) (*connect.Response[Tournament], error) {
	t, err := s.tournamentSvc.CreateTournament(ctx, req.Msg.Name, req.Msg.Platform)
	if err != nil {
		return nil, err
	}
	out := toTournament(t)
	return connect.NewResponse(&out), nil
}

func (s *TrackerServer) RegisterTeam(ctx context.Context, req *connect.Request[RegisterTeamRequest]) (*connect.Response[Team], error) {
	team, err := s.tournamentSvc.RegisterTeam(ctx, req.Msg.TournamentID, req.Msg.Name, req.Msg.Players)
	if err != nil {
		return nil, err
	}
	out := toTeam(*team)
	return connect.NewResponse(&out), nil
}

func (s *TrackerServer) GetTournament(ctx context.Context, req *connect.Request[GetTournamentRequest]) (*connect.Response[Tournament], error) {
	t, err := s.tournamentSvc.GetTournament(ctx, req.Msg.TournamentID)
	if err != nil {
		return nil, err
	}
	out := toTournament(t)
	return connect.NewResponse(&out), nil
}

func (s *TrackerServer) AssembleResults(ctx context.Context, req *connect.Request[AssembleResultsRequest]) (*connect.Response[ResultsResponse], error) {
	matches, err := s.tournamentSvc.AssembleResults(ctx, req.Msg.TournamentID, req.Msg.TimeRange)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toResults(req.Msg.TournamentID, matches)), nil
}

func (s *TrackerServer) ListResults(ctx context.Context, req *connect.Request[ListResultsRequest]) (*connect.Response[ResultsResponse], error) {
	matches, err := s.tournamentSvc.ListResults(ctx, req.Msg.TournamentID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toResults(req.Msg.TournamentID, matches)), nil
}

func (s *TrackerServer) OverrideClassification(ctx context.Context, req *connect.Request[OverrideClassificationRequest]) (*connect.Response[OverrideClassificationResponse], error) {
	if err := s.tournamentSvc.OverrideClassification(ctx, req.Msg.TournamentID, req.Msg.MatchID, req.Msg.Classification); err != nil {
		return nil, err
	}
	label := domain.Classification(strings.ToUpper(strings.TrimSpace(req.Msg.Classification)))
	return connect.NewResponse(&OverrideClassificationResponse{
		TournamentID:   req.Msg.TournamentID,
		MatchID:        req.Msg.MatchID,
		Classification: label,
	}), nil
}

func (s *TrackerServer) GetUpstreamStatus(ctx context.Context, _ *connect.Request[GetUpstreamStatusRequest]) (*connect.Response[UpstreamStatusResponse], error) {
	out := &UpstreamStatusResponse{
		Upstream:        s.source.UpstreamStats(),
		ClassifierRules: s.classifier.RuleNames(),
	}

	// the limiter is busy while a caller waits out the window
	snapCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if snap, err := s.limiter.Snapshot(snapCtx); err == nil {
		out.Limiter = &LimiterStatus{
			PerMinute:     snap.PerMinute,
			MinIntervalMS: snap.MinInterval.Milliseconds(),
			InWindow:      snap.InWindow,
			LastRequestAt: snap.LastRequestAt,
		}
	} else {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("limiter snapshot unavailable")
	}
	return connect.NewResponse(out), nil
}
