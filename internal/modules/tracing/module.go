package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"

	"spot_bot/internal/modules/config"
	"spot_bot/pkg/logger"
	"spot_bot/pkg/tracing"
)

func NewTracer(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (opentracing.Tracer, error) {
	tracer, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Service: cfg.Tracing.Service,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	}, log.Zap())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			closer()
			return nil
		},
	})
	return tracer, nil
}

func Module() fx.Option {
	return fx.Module("tracing",
		fx.Provide(NewTracer),
		// spans go to the global tracer, so it has to exist before any trader starts
		fx.Invoke(func(opentracing.Tracer) {}),
	)
}
