package app

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the global zap logger and installs it through
// zap.ReplaceGlobals. The returned configuration carries the atomic level,
// which the router exposes to adjust verbosity at runtime.
func InitLogger(production bool) zap.Config {
	zapConfig := newLoggerConfig(production)

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	return zapConfig
}

func newLoggerConfig(production bool) zap.Config {
	if production {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return config
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return config
}
