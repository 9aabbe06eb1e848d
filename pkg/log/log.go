// Package log provides the service-wide zap logger.
package log

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("logger",
	fx.Provide(New),
	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	}),
)

// Options selects the logger flavour and the fields stamped on every entry.
type Options struct {
	Service    string
	Version    string
	Production bool
	// Level is a zap level name; unknown names fall back to info.
	Level string
}

// New builds a production logger in production and a development logger otherwise.
func New(o Options) (*zap.Logger, error) {
	var zcfg zap.Config
	if o.Production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", o.Service),
		zap.String("version", o.Version),
	), nil
}
