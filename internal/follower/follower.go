package follower

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/metrics"
	"spot_bot/internal/models"
	"spot_bot/internal/notify"
	"spot_bot/internal/sizing"
	"spot_bot/pkg/logger"
)

const logTag = "FOLLOWER"

type Config struct {
	SignalFile    string
	EnableFile    string
	TradeAmount   decimal.Decimal
	PollInterval  time.Duration
	MinTradeValue decimal.Decimal
	QuoteCurrency string
}

type Deps struct {
	Client   exchange.Client
	Executor *executor.Executor
	Dedup    DedupStore
	Log      *logger.Logger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

// Follower mirrors trades published by another process into a JSON file.
// The enable file acts as a runtime switch that needs no restart.
type Follower struct {
	cfg   Config
	deps  Deps
	sizer *sizing.Sizer
}

func New(cfg Config, deps Deps) *Follower {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if deps.Dedup == nil {
		deps.Dedup = NewMemoryDedup()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewStdout(deps.Log)
	}
	return &Follower{
		cfg:   cfg,
		deps:  deps,
		sizer: sizing.New(sizing.Params{MinTradeValue: cfg.MinTradeValue}),
	}
}

func (f *Follower) Run(ctx context.Context) {
	f.deps.Log.Infof(logTag, "Follower started, watching %s", f.cfg.SignalFile)
	for {
		if err := f.Poll(ctx); err != nil && ctx.Err() == nil {
			f.deps.Log.Errorf(logTag, "%v", err)
		}

		select {
		case <-ctx.Done():
			f.deps.Log.Infof(logTag, "Follower stopped")
			return
		case <-time.After(f.cfg.PollInterval):
		}
	}
}

// Poll runs one cycle. It returns the first error that stopped the cycle;
// records before it keep their processed state.
func (f *Follower) Poll(ctx context.Context) error {
	if _, err := os.Stat(f.cfg.EnableFile); err != nil {
		f.deps.Log.Infof(logTag, "Follower paused (waiting for %s file)", f.cfg.EnableFile)
		return nil
	}

	signals, err := ReadFeed(f.cfg.SignalFile)
	if errors.Is(err, ErrNoFeed) {
		f.deps.Log.Warnf(logTag, "No %s found", f.cfg.SignalFile)
		return nil
	}
	if err != nil {
		return err
	}

	for _, sig := range signals {
		if sig.Time == "" {
			continue
		}
		seen, err := f.deps.Dedup.Seen(ctx, sig.Time)
		if err != nil {
			return err
		}
		if seen {
			continue
		}

		f.deps.Log.Infof(sig.Symbol, "NEW SIGNAL: time=%s symbol=%s side=%s", sig.Time, sig.Symbol, sig.Side)
		if err := f.handle(ctx, sig); err != nil {
			f.deps.Metrics.FollowerSignal("error")
			f.deps.Log.Errorf(sig.Symbol, "signal %s failed: %v", sig.Time, err)
			continue
		}
		if err := f.deps.Dedup.Mark(ctx, sig.Time); err != nil {
			return err
		}
	}
	return nil
}

// handle returns an error only when the signal should be retried.
func (f *Follower) handle(ctx context.Context, sig models.FeedSignal) error {
	side, ok := models.ParseSide(sig.Side)
	if !ok || sig.Symbol == "" {
		f.deps.Metrics.FollowerSignal("invalid")
		f.deps.Log.Warnf(logTag, "ignoring malformed signal %s (symbol %q, side %q)", sig.Time, sig.Symbol, sig.Side)
		return nil
	}
	pair := models.SymbolConfig{Symbol: sig.Symbol, QuoteCurrency: f.cfg.QuoteCurrency}

	price, err := f.deps.Client.CurrentPrice(ctx, sig.Symbol)
	if err != nil {
		return err
	}
	base, err := f.deps.Client.Balance(ctx, pair.Base())
	if err != nil {
		return err
	}
	quote, err := f.deps.Client.Balance(ctx, pair.Quote())
	if err != nil {
		return err
	}

	order, err := f.sizer.Fixed(side, f.cfg.TradeAmount, price, base, quote)
	if err != nil {
		r, ok := sizing.AsRejection(err)
		if !ok {
			return err
		}
		f.deps.Metrics.FollowerSignal("rejected")
		f.deps.Log.Warnf(sig.Symbol, "FOLLOWER %s skipped: %s", side, r.Error())
		return nil
	}

	var res models.ExecutionResult
	if side == models.SideBuy {
		res, err = f.deps.Executor.MarketBuy(ctx, sig.Symbol, order.Quantity, price)
	} else {
		res, err = f.deps.Executor.MarketSell(ctx, sig.Symbol, order.Quantity)
	}
	if err != nil {
		return err
	}

	f.deps.Metrics.FollowerSignal("executed")
	f.deps.Metrics.Order(sig.Symbol, string(side), string(models.OrderTypeMarket))
	f.deps.Log.Infof(sig.Symbol, "FOLLOWER executed %s %s %s at %s (value %s)",
		side, res.Filled, sig.Symbol, res.Price, res.Value().StringFixed(2))
	f.deps.Notifier.Sendf("[%s] FOLLOWER %s %s @ %s", sig.Symbol, side, res.Filled, res.Price)
	return nil
}
