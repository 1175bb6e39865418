package config

import (
	"fmt"
	"os"
	"pubg-tournament/internal/constants"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	PUBGAPIKey  string
	PUBGBaseURL string
	DBPath      string
	ServerPort  string
	LogLevel    zerolog.Level

	CacheBackend  string // file, redis or memory
	CacheDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMinute   int
	RateLimitMinInterval time.Duration
	MaxRetries           int
	RetryBaseDelay       time.Duration
	RateLimitFallback    time.Duration

	TuningPath string

	InboundRate  float64 // requests per second per client
	InboundBurst int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		PUBGAPIKey:    getEnv("PUBG_API_KEY", ""),
		PUBGBaseURL:   strings.TrimRight(getEnv("PUBG_BASE_URL", "https://api.pubg.com"), "/"),
		DBPath:        getEnv("DB_PATH", "tournament.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "file")),
		CacheDir:      getEnv("CACHE_DIR", "cache"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		TuningPath:    getEnv("TUNING_PATH", ""),
	}

	if cfg.PUBGAPIKey == "" {
		return nil, fmt.Errorf("PUBG_API_KEY is required")
	}

	var err error
	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "debug"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", constants.DefaultRateLimitPerMinute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.RateLimitMinInterval, err = getEnvDuration("RATE_LIMIT_MIN_INTERVAL", constants.RateLimitWindow/time.Duration(cfg.RateLimitPerMinute)); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getEnvInt("MAX_RETRIES", constants.DefaultMaxRetries); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = getEnvDuration("RETRY_BASE_DELAY", constants.DefaultRetryBaseDelay); err != nil {
		return nil, err
	}
	if cfg.RateLimitFallback, err = getEnvDuration("RATE_LIMIT_FALLBACK", constants.DefaultRateLimitFallback); err != nil {
		return nil, err
	}
	if cfg.InboundRate, err = getEnvFloat("INBOUND_RATE", 2); err != nil {
		return nil, err
	}
	if cfg.InboundBurst, err = getEnvInt("INBOUND_BURST", 10); err != nil {
		return nil, err
	}

	switch cfg.CacheBackend {
	case "file", "redis", "memory":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q, expected file, redis or memory", cfg.CacheBackend)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel.String()).
		Str("cache_backend", cfg.CacheBackend).
		Int("rate_limit_per_minute", cfg.RateLimitPerMinute).
		Dur("rate_limit_min_interval", cfg.RateLimitMinInterval).
		Int("max_retries", cfg.MaxRetries).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

var Module = fx.Provide(Load)
