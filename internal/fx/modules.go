package fx

import (
	"context"
	"database/sql"
	"fmt"
	"pubg-tournament/internal/api"
	"pubg-tournament/internal/cache"
	"pubg-tournament/internal/classifier"
	"pubg-tournament/internal/clock"
	"pubg-tournament/internal/config"
	"pubg-tournament/internal/constants"
	"pubg-tournament/internal/database"
	"pubg-tournament/internal/db"
	"pubg-tournament/internal/fetch"
	"pubg-tournament/internal/logger"
	"pubg-tournament/internal/ratelimit"
	"pubg-tournament/internal/repository"
	"pubg-tournament/internal/server"
	"pubg-tournament/internal/service"
	"pubg-tournament/internal/tuning"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideCache picks the backend named by CACHE_BACKEND.
func ProvideCache(lc fx.Lifecycle, cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (cache.Store, error) {
	log := logger.With().Str("component", "cache").Logger()

	switch cfg.CacheBackend {
	case "memory":
		return cache.NewMemoryStore(clk), nil
	case "redis":
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, clk, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		return store, nil
	case "file", "":
		return cache.NewFileStore(cfg.CacheDir, clk, log), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func ProvideLimiter(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*ratelimit.Limiter, error) {
	return ratelimit.New(ratelimit.Config{
		PerMinute:   cfg.RateLimitPerMinute,
		MinInterval: cfg.RateLimitMinInterval,
		Window:      constants.RateLimitWindow,
	}, clk, logger.With().Str("component", "ratelimit").Logger())
}

func ProvideFetchClient(cfg *config.Config, limiter *ratelimit.Limiter, clk clock.Clock, logger zerolog.Logger) *fetch.Client {
	policy := fetch.Policy{
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         cfg.RetryBaseDelay,
		RateLimitFallback: cfg.RateLimitFallback,
		RateLimitFactor:   constants.RateLimitBackoffFactor,
	}
	return fetch.New(fetch.NewTransport(), limiter, policy, clk, logger.With().Str("component", "fetch").Logger())
}

func ProvideTuning(cfg *config.Config, logger zerolog.Logger) (*tuning.Store, error) {
	t, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		return nil, err
	}
	if cfg.TuningPath != "" {
		logger.Info().Str("path", cfg.TuningPath).Msg("tuning file loaded")
	}
	return tuning.NewStore(t), nil
}

func ProvideClassifier(h *classifier.Holder) service.Classifier {
	return h
}

// WatchTuning hot-reloads the tuning file when one is configured. A revision
// reaches the store only after the classifier accepted it.
func WatchTuning(lc fx.Lifecycle, cfg *config.Config, store *tuning.Store, holder *classifier.Holder, logger zerolog.Logger) error {
	if cfg.TuningPath == "" {
		return nil
	}
	w, err := tuning.NewWatcher(cfg.TuningPath, constants.TuningReloadDebounce, logger.With().Str("component", "tuning").Logger(), func(t *tuning.Tuning) error {
		if err := holder.Apply(t); err != nil {
			return err
		}
		store.Set(t)
		return nil
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
	return nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(clock.New),
	// storage
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	fx.Provide(ProvideCache),
	// repos
	fx.Provide(repository.NewTournamentRepository),
	fx.Provide(repository.NewMatchRepository),
	// upstream
	fx.Provide(ProvideLimiter),
	fx.Provide(ProvideFetchClient),
	fx.Provide(api.NewPUBGClient),
	// classification
	fx.Provide(ProvideTuning),
	fx.Provide(classifier.NewHolder),
	fx.Provide(ProvideClassifier),
	fx.Invoke(WatchTuning),
	// svc
	fx.Provide(service.NewMatchSource),
	fx.Provide(service.NewMatchResolver),
	fx.Provide(service.NewRosterSearch),
	fx.Provide(service.NewMatchDetailService),
	fx.Provide(service.NewSearchService),
	fx.Provide(service.NewTournamentService),
	// server
	fx.Provide(server.NewTrackerServer),
)
