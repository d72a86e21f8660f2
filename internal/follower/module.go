package follower

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/metrics"
	"spot_bot/internal/modules/config"
	"spot_bot/internal/notify"
	"spot_bot/pkg/logger"
)

type Params struct {
	fx.In

	Lc       fx.Lifecycle
	Config   *config.Config
	Client   exchange.Client
	Executor *executor.Executor
	Log      *logger.Logger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

// NewFromConfig returns nil when the follower is disabled.
func NewFromConfig(p Params) (*Follower, error) {
	cfg := p.Config
	if !cfg.EnableFollower {
		return nil, nil
	}

	var dedup DedupStore = NewMemoryDedup()
	if cfg.Follower.Dedup == config.DedupRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Follower.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, errors.Wrapf(err, "redis %s", cfg.Follower.RedisAddr)
		}
		p.Lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error { return rdb.Close() },
		})
		dedup = NewRedisDedup(rdb, cfg.Follower.RedisKey)
	}

	return New(Config{
		SignalFile:    cfg.Follower.SignalFile,
		EnableFile:    cfg.Follower.EnableFile,
		TradeAmount:   decimal.NewFromFloat(cfg.Follower.TradeAmount),
		PollInterval:  cfg.Follower.PollInterval,
		MinTradeValue: decimal.NewFromFloat(cfg.MinTradeUSDT),
		QuoteCurrency: cfg.QuoteCurrency,
	}, Deps{
		Client:   p.Client,
		Executor: p.Executor,
		Dedup:    dedup,
		Log:      p.Log,
		Notifier: p.Notifier,
		Metrics:  p.Metrics,
	}), nil
}

func Module() fx.Option {
	return fx.Module("follower",
		fx.Provide(NewFromConfig),
		fx.Invoke(func(lc fx.Lifecycle, f *Follower) {
			if f == nil {
				return
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
						f.Run(ctx)
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
