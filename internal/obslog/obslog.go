// Package obslog constructs the zap logger shared by the HTTP service and
// the CLI's server-facing subcommands. CLI subcommands that talk directly
// to a single translation service keep the teacher's plain
// fmt.Fprintf(os.Stderr, ...) diagnostic style; this package is only for
// the adaptive core's machine-parseable observability events (controller,
// registry, httpapi).
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the logger's verbosity and encoding.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Development enables human-readable console output instead of JSON,
	// for local `peretran serve` runs outside a container.
	Development bool
}

// New builds a zap.Logger per cfg. It never returns an error: an
// unparsable Level silently falls back to info, matching the teacher's
// own preference for a diagnostic that degrades rather than aborts
// startup over a logging misconfiguration.
func New(cfg Config) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
