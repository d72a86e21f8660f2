package exchange

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/modules/health/service"
	"spot_bot/pkg/logger"
)

// NewPriceCache returns nil when the ticker stream is disabled, which makes
// the REST client fetch every price.
func NewPriceCache(cfg *config.Config) *exchange.PriceCache {
	if !cfg.Exchange.WSEnabled {
		return nil
	}
	return exchange.NewPriceCache(cfg.Exchange.PriceMaxAge)
}

func NewGuard(cfg *config.Config) *exchange.Guard {
	return exchange.NewGuard("gate", cfg.Exchange.RateLimitRPS, cfg.Exchange.RateLimitBurst)
}

func NewClient(cfg *config.Config, guard *exchange.Guard, prices *exchange.PriceCache) (exchange.Client, error) {
	return exchange.NewGate(exchange.GateConfig{
		BaseURL:   cfg.Exchange.BaseURL,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Timeout:   cfg.Exchange.Timeout,
	}, guard, prices)
}

func NewExecutor(cfg *config.Config, client exchange.Client) *executor.Executor {
	return executor.New(client, cfg.Exchange.SettleDelay)
}

// Module wires the Gate REST client, the order executor and, when enabled,
// the ticker stream that keeps the price cache warm.
func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			NewPriceCache,
			NewGuard,
			NewClient,
			NewExecutor,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, prices *exchange.PriceCache, health *service.State, log *logger.Logger) {
			if prices == nil {
				return
			}
			stream := exchange.NewTickerStream(cfg.Exchange.WSURL, prices, log)
			stream.OnConnect = health.SetWSConnected

			symbols := make([]string, 0, len(cfg.Symbols))
			for _, sc := range cfg.SymbolConfigs() {
				symbols = append(symbols, sc.Symbol)
			}

			var (
				cancel context.CancelFunc
				wg     sync.WaitGroup
			)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					wg.Add(1)
					go func() {
						defer wg.Done()
						stream.Run(ctx, symbols)
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					wg.Wait()
					return nil
				},
			})
		}),
	)
}
