package telegram

import (
	"context"

	"go.uber.org/fx"

	"spot_bot/internal/modules/config"
	"spot_bot/internal/notify"
	"spot_bot/pkg/logger"
)

// NewTelegram returns nil when no bot token is configured.
func NewTelegram(cfg *config.Config, log *logger.Logger) (*notify.Telegram, error) {
	if cfg.Telegram.Token == "" {
		log.Zap().Info("telegram disabled, notifications go to the log")
		return nil, nil
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
}

// NewNotifier falls back to the log when Telegram is off.
func NewNotifier(t *notify.Telegram, log *logger.Logger) notify.Notifier {
	if t == nil {
		return notify.NewStdout(log)
	}
	return t
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewTelegram,
			NewNotifier,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *notify.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						t.Start(context.Background())
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
