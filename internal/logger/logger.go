package logger

import (
	"os"
	"pubg-tournament/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the process logger. Until the configuration is applied it logs
// at zerolog's default global level.
func New() zerolog.Logger {
	return SetLevel(zerolog.TraceLevel)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

// ApplyConfig makes the configured LOG_LEVEL the threshold for every logger
// derived from New.
func ApplyConfig(cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(ApplyConfig),
)
