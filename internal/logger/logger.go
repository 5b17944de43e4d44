package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide SugaredLogger. It starts as a no-op so packages can
// log before Initialize runs (or in tests that never call it).
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Initialize replaces Log with a production logger at the given level.
// Level strings follow zapcore.ParseLevel ("debug", "info", "warn", ...).
func Initialize(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = logger.Sugar()
	return nil
}
