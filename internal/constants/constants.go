package constants

import "time"

// cache TTLs; matches and telemetry are immutable once finalized upstream
const (
	PlayerCacheTTL    = 30 * time.Minute
	MatchListCacheTTL = 30 * time.Minute
	MatchCacheTTL     = 7 * 24 * time.Hour
	TelemetryCacheTTL = 7 * 24 * time.Hour
)

const (
	MetadataTimeout  = 10 * time.Second
	TelemetryTimeout = 30 * time.Second
	DatabaseTimeout  = 5 * time.Second
	RequestTimeout   = 5 * time.Minute
)

// A cold capped roster is 35 upstream calls, about 4.5 min at the default
// pace before any 429 backoff.
const RosterSearchTimeout = 15 * time.Minute

const (
	DefaultRateLimitPerMinute = 8
	RateLimitWindow           = time.Minute
	DefaultMaxRetries         = 3
	DefaultRetryBaseDelay     = time.Second
	DefaultRateLimitFallback  = 10 * time.Second
	RateLimitBackoffFactor    = 3
)

const (
	MaxRecentMatches      = 5
	MatchFetchConcurrency = 2
	MaxRosterSize         = 5
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout       = 5 * time.Second
	TuningReloadDebounce  = 500 * time.Millisecond
	InboundLimiterIdleTTL = 10 * time.Minute
)
