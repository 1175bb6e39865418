package server

import (
	"context"
	"errors"
	"fmt"
	"pubg-tournament/internal/domain"
	"pubg-tournament/internal/fetch"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

var invalidArgument = []error{
	domain.ErrInvalidArgument,
	domain.ErrInvalidPlatform,
	domain.ErrInvalidTimeRange,
	domain.ErrInvalidClassification,
	domain.ErrEmptyRoster,
	domain.ErrMissingMatchID,
}

var notFound = []error{
	domain.ErrMatchNotFound,
	domain.ErrTelemetryNotFound,
	domain.ErrTournamentNotFound,
}

// toConnectError picks the RPC code a caller can act on.
func toConnectError(err error) *connect.Error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	var exhausted *fetch.TransportExhaustedError
	if errors.As(err, &exhausted) {
		switch exhausted.Category {
		case fetch.RateLimited:
			return connect.NewError(connect.CodeResourceExhausted, exhausted)
		case fetch.Timeout:
			return connect.NewError(connect.CodeDeadlineExceeded, exhausted)
		case fetch.Reset:
			return connect.NewError(connect.CodeUnavailable, exhausted)
		default:
			return connect.NewError(connect.CodeInternal, exhausted)
		}
	}

	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeNotFound, err)
		}
	}
	if errors.Is(err, domain.ErrTeamExists) {
		return connect.NewError(connect.CodeAlreadyExists, err)
	}

	if status, ok := fetch.StatusCode(err); ok {
		switch status {
		case 401:
			return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("PUBG API rejected the API key, check PUBG_API_KEY: %w", err))
		case 403:
			return connect.NewError(connect.CodePermissionDenied, err)
		case 404:
			return connect.NewError(connect.CodeNotFound, err)
		case 429:
			return connect.NewError(connect.CodeResourceExhausted, err)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// errorInterceptor maps service errors onto connect codes and logs them with
// the request-scoped logger.
func errorInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err == nil {
				return resp, nil
			}

			cerr := toConnectError(err)
			log := zerolog.Ctx(ctx)
			event := log.Warn()
			if cerr.Code() == connect.CodeInternal {
				event = log.Error()
			}
			event.Err(err).
				Str("procedure", req.Spec().Procedure).
				Str("code", cerr.Code().String()).
				Msg("request failed")
			return nil, cerr
		}
	}
}
