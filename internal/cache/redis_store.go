package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"pubg-tournament/internal/clock"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ Store = (*RedisStore)(nil)

const redisKeyPrefix = "pubg:cache:"

// RedisStore keeps the same envelope as FileStore; Redis expiry does the eviction.
type RedisStore struct {
	client *redis.Client
	clock  clock.Clock
	logger zerolog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig, clk clock.Clock, logger zerolog.Logger) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis cache connected")
	return &RedisStore{client: client, clock: clk, logger: logger}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return redisKeyPrefix + SanitizeKey(key)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug().Err(err).Str("key", key).Msg("redis cache read failed")
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("redis cache entry unreadable")
		return nil, false
	}
	if e.expired(s.clock.Now()) {
		s.Delete(ctx, key)
		return nil, false
	}
	return e.Data, true
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(newEntry(payload, s.clock.Now(), ttl))
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("cache payload is not valid JSON, skipping")
		return
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("redis cache write failed")
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("redis cache delete failed")
	}
}
