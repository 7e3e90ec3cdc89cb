// Package logger builds the process-wide zap logger.
package logger

import (
	"clubbot/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("zap",
	fx.Provide(
		New,
	),
)

// New returns a console logger for local runs and a JSON logger on stdout
// when APP_ENV is production.
func New(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.OutputPaths = []string{"stdout"}
	}

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	log = log.Named("clubbot").With(zap.String("env", cfg.AppEnv))
	zap.ReplaceGlobals(log)
	return log, nil
}
