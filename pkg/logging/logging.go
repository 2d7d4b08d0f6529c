package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production config (JSON, info level)
// unless debug is set, in which case the console encoder with colored
// levels makes local runs readable.
func New(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}
