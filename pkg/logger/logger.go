// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Sugared = *zap.SugaredLogger

// New returns a JSON production logger in prod and a console development
// logger otherwise. Every entry carries the service name.
func New(env, service string) Sugared {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return z.Sugar().With("service", service)
}
