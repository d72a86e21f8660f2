package runner

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/ledger"
	"spot_bot/internal/metrics"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/health/service"
	"spot_bot/internal/notify"
	"spot_bot/internal/strategy"
	"spot_bot/pkg/logger"
)

type TradersParams struct {
	fx.In

	Config   *config.Config
	Client   exchange.Client
	Executor *executor.Executor
	Store    ledger.Store
	Log      *logger.Logger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Health   *service.State
}

// NewTraders builds one trader per configured symbol.
func NewTraders(p TradersParams) ([]*Trader, error) {
	symbols := p.Config.SymbolConfigs()
	traders := make([]*Trader, 0, len(symbols))
	for _, sc := range symbols {
		policy, err := strategy.New(sc)
		if err != nil {
			return nil, errors.Wrap(err, sc.Symbol)
		}
		deps := Deps{
			Client:   p.Client,
			Executor: p.Executor,
			Log:      p.Log,
			Notifier: p.Notifier,
			Metrics:  p.Metrics,
			Health:   p.Health,
		}
		if sc.Strategy.IsGrid() {
			deps.Ledger = ledger.New(sc.Symbol, p.Store, p.Log)
		}
		traders = append(traders, NewTrader(sc, policy, deps))
	}
	return traders, nil
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewTraders,
			NewManager,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			m *Manager,
			health *service.State,
			tg *notify.Telegram,
		) {
			tg.SetStatusSource(m)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					m.Start(context.Background())
					health.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					health.SetReady(false)
					m.Stop()
					return nil
				},
			})
		}),
	)
}
