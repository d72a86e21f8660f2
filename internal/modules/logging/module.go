package logging

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"spot_bot/internal/modules/config"
	"spot_bot/pkg/logger"
)

func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Service: "spot_bot",
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
		Debug:   cfg.Log.Debug,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return log.Close() },
	})
	return log, nil
}

// Module provides the shared logger and routes fx's own events through it.
func Module() fx.Option {
	return fx.Options(
		fx.Module("logging", fx.Provide(NewLogger)),
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Zap().Named("fx")}
		}),
	)
}
