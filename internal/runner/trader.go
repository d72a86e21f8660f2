package runner

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/exchange"
	"spot_bot/internal/executor"
	"spot_bot/internal/indicator"
	"spot_bot/internal/ledger"
	"spot_bot/internal/metrics"
	"spot_bot/internal/models"
	"spot_bot/internal/notify"
	"spot_bot/internal/sizing"
	"spot_bot/internal/strategy"
	"spot_bot/pkg/logger"
	"spot_bot/pkg/tracing"
)

const quantityPlaces = 4

// TickRecorder is told when a trader finishes a tick.
type TickRecorder interface {
	TouchTick(symbol string, t time.Time)
}

type Deps struct {
	Client   exchange.Client
	Executor *executor.Executor
	Ledger   *ledger.Ledger // grid strategies only
	Log      *logger.Logger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Health   TickRecorder
}

// Trader runs the fetch, evaluate, size, execute and record cycle for one
// symbol. Ticks are strictly sequential; errors end the tick, never the loop.
type Trader struct {
	cfg    models.SymbolConfig
	policy strategy.Policy
	sizer  *sizing.Sizer
	deps   Deps
	now    func() time.Time

	mu       sync.RWMutex
	state    State
	lastTick time.Time
	lastErr  error
}

func NewTrader(cfg models.SymbolConfig, policy strategy.Policy, deps Deps) *Trader {
	if deps.Notifier == nil {
		deps.Notifier = notify.NewStdout(deps.Log)
	}
	return &Trader{
		cfg:    cfg,
		policy: policy,
		sizer:  sizing.New(sizing.ParamsFrom(cfg)),
		deps:   deps,
		now:    time.Now,
		state:  StateIdle,
	}
}

func (t *Trader) Symbol() string { return t.cfg.Symbol }

func (t *Trader) Strategy() models.StrategyType { return t.policy.Name() }

func (t *Trader) Ledger() *ledger.Ledger { return t.deps.Ledger }

func (t *Trader) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// LastTick returns when the last tick ended and how.
func (t *Trader) LastTick() (time.Time, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastTick, t.lastErr
}

func (t *Trader) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Run ticks every check interval until ctx is cancelled.
func (t *Trader) Run(ctx context.Context) {
	interval := t.cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	t.deps.Log.Infof(t.cfg.Symbol, "Trader started (%s, every %s)", t.policy.Name(), interval)

	for {
		_ = t.Tick(ctx)

		select {
		case <-ctx.Done():
			t.deps.Log.Infof(t.cfg.Symbol, "Trader stopped")
			return
		case <-time.After(interval):
		}
	}
}

// Tick performs one pass and returns the error that ended it, if any.
// Sizing rejections and HOLD decisions are not errors.
func (t *Trader) Tick(ctx context.Context) (err error) {
	start := t.now()
	span, ctx := tracing.StartSpan(ctx, "trader.tick", opentracing.Tags{
		"symbol":   t.cfg.Symbol,
		"strategy": string(t.policy.Name()),
	})
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		if err != nil && ctx.Err() == nil {
			t.deps.Log.Errorf(t.cfg.Symbol, "Main loop error: %v", err)
		}
		end := t.now()
		t.mu.Lock()
		t.state = StateIdle
		t.lastTick, t.lastErr = end, err
		t.mu.Unlock()

		t.deps.Metrics.Tick(t.cfg.Symbol, end.Sub(start).Seconds(), err)
		if t.deps.Health != nil {
			t.deps.Health.TouchTick(t.cfg.Symbol, end)
		}
		tracing.Finish(span, err)
	}()

	t.setState(StateFetching)
	snap, exposure, err := t.fetch(ctx)
	if err != nil {
		return err
	}

	t.setState(StateEvaluating)
	ind, err := indicator.Compute(snap, t.policy.Indicators())
	if err != nil {
		return errors.Wrap(err, "indicators")
	}
	t.logStatus(snap, ind, exposure)

	decision := t.policy.Evaluate(snap, ind, exposure)
	t.deps.Metrics.Decision(t.cfg.Symbol, string(decision.Action))

	switch decision.Action {
	case models.ActionBuy:
		return t.buy(ctx, snap, decision)
	case models.ActionSell:
		return t.sell(ctx, snap, decision)
	default:
		t.deps.Log.Infof(t.cfg.Symbol, "HOLD: %s", decision.Reason)
		return nil
	}
}

func (t *Trader) fetch(ctx context.Context) (models.Snapshot, decimal.Decimal, error) {
	snap := models.Snapshot{Symbol: t.cfg.Symbol}
	exposure := decimal.Zero

	if l := t.deps.Ledger; l != nil {
		if closed, err := l.Reconcile(ctx, t.deps.Client); err != nil {
			return snap, exposure, errors.Wrap(err, "reconcile")
		} else if closed > 0 {
			t.deps.Notifier.Sendf("[%s] %d take-profit order(s) filled", t.cfg.Symbol, closed)
		}
		var err error
		if exposure, err = l.TotalOpenExposure(ctx); err != nil {
			return snap, exposure, errors.Wrap(err, "exposure")
		}
		t.deps.Metrics.Exposure(t.cfg.Symbol, exposure)
	}

	var err error
	if snap.Price, err = t.deps.Client.CurrentPrice(ctx, t.cfg.Symbol); err != nil {
		return snap, exposure, err
	}
	if need := t.policy.Indicators().CandlesNeeded(); need > 0 {
		if snap.Candles, err = t.deps.Client.Candles(ctx, t.cfg.Symbol, t.cfg.CandleInterval, need); err != nil {
			return snap, exposure, err
		}
	}
	if snap.BaseBalance, err = t.deps.Client.Balance(ctx, t.cfg.Base()); err != nil {
		return snap, exposure, err
	}
	if snap.QuoteBalance, err = t.deps.Client.Balance(ctx, t.cfg.Quote()); err != nil {
		return snap, exposure, err
	}
	return snap, exposure, nil
}

func (t *Trader) logStatus(snap models.Snapshot, ind indicator.Set, exposure decimal.Decimal) {
	line := "Price: " + snap.Price.String()
	if s := ind.String(); s != "" {
		line += ", " + s
	}
	t.deps.Log.Infof(t.cfg.Symbol, "%s", line)
	if t.policy.Name().IsGrid() {
		t.deps.Log.Infof(t.cfg.Symbol, "Current exposure: %s / %s, available %s: %s",
			exposure.StringFixed(2), t.cfg.MaxExposure, t.cfg.Quote(), snap.QuoteBalance)
	}
}

func (t *Trader) buy(ctx context.Context, snap models.Snapshot, decision strategy.Decision) error {
	t.setState(StateSizing)
	order, err := t.sizer.Buy(snap.Price, snap.QuoteBalance)
	if err != nil {
		return t.rejected("BUY", err)
	}

	if decision.ExpectedMove.IsPositive() && t.cfg.MinExpectedProfit.IsPositive() {
		expected := order.Quantity.Mul(decision.ExpectedMove)
		t.deps.Log.Infof(t.cfg.Symbol, "Expected BUY Profit: %s %s", expected.StringFixed(4), t.cfg.Quote())
		if expected.LessThan(t.cfg.MinExpectedProfit) {
			t.deps.Log.Infof(t.cfg.Symbol, "BUY skipped, profit below %s", t.cfg.MinExpectedProfit)
			return nil
		}
	}

	t.deps.Log.Infof(t.cfg.Symbol, "BUY SIGNAL (%s): buying %s %s worth %s %s",
		decision.Reason, order.Quantity, t.cfg.Base(), order.Allocation.StringFixed(2), t.cfg.Quote())

	t.setState(StateExecuting)
	res, err := t.deps.Executor.MarketBuy(ctx, t.cfg.Symbol, order.Quantity, snap.Price)
	if err != nil {
		return errors.Wrap(err, "buy")
	}
	t.deps.Metrics.Order(t.cfg.Symbol, string(models.SideBuy), string(models.OrderTypeMarket))
	t.deps.Log.Infof(t.cfg.Symbol, "BUY EXECUTED %s at %s (value %s)", res.Filled, res.Price, res.Value().StringFixed(2))
	t.deps.Notifier.Sendf("[%s] BUY %s @ %s", t.cfg.Symbol, res.Filled, res.Price)

	if decision.PairedSell == nil {
		return nil
	}
	return t.placeTakeProfit(ctx, res, *decision.PairedSell)
}

func (t *Trader) placeTakeProfit(ctx context.Context, buy models.ExecutionResult, plan strategy.SellPlan) error {
	if t.deps.Ledger == nil {
		return errors.New("grid strategy without a ledger")
	}

	market, err := t.deps.Client.CurrentPrice(ctx, t.cfg.Symbol)
	if err != nil {
		t.deps.Log.Warnf(t.cfg.Symbol, "Price refresh failed, pricing sell from margin only: %v", err)
		market = decimal.Zero
	}
	target := plan.Target(buy.Price, market)

	// fees are charged in the base currency, so never offer more than we hold
	qty := buy.Filled
	if held, err := t.deps.Client.Balance(ctx, t.cfg.Base()); err == nil && held.LessThan(qty) {
		qty = held
	}
	qty = qty.Truncate(quantityPlaces)

	t.deps.Log.Infof(t.cfg.Symbol, "Placing limit SELL: %s at %s", qty, target)
	sellID, err := t.deps.Executor.PlaceLimitSell(ctx, t.cfg.Symbol, qty, target)
	if err != nil {
		return errors.Wrapf(err, "take-profit for %s bought at %s", qty, buy.Price)
	}
	t.deps.Metrics.Order(t.cfg.Symbol, string(models.SideSell), string(models.OrderTypeLimit))

	t.setState(StateRecording)
	if _, err := t.deps.Ledger.Record(ctx, buy.Price, qty, target, sellID); err != nil {
		return errors.Wrap(err, "ledger")
	}
	t.deps.Notifier.Sendf("[%s] take-profit %s placed at %s", t.cfg.Symbol, sellID, target)
	return nil
}

func (t *Trader) sell(ctx context.Context, snap models.Snapshot, decision strategy.Decision) error {
	t.setState(StateSizing)
	order, err := t.sizer.Sell(snap.Price, snap.BaseBalance)
	if err != nil {
		return t.rejected("SELL", err)
	}

	t.deps.Log.Infof(t.cfg.Symbol, "SELL SIGNAL (%s): selling %s %s worth %s %s",
		decision.Reason, order.Quantity, t.cfg.Base(), order.Value.StringFixed(2), t.cfg.Quote())

	t.setState(StateExecuting)
	res, err := t.deps.Executor.MarketSell(ctx, t.cfg.Symbol, order.Quantity)
	if err != nil {
		return errors.Wrap(err, "sell")
	}
	t.deps.Metrics.Order(t.cfg.Symbol, string(models.SideSell), string(models.OrderTypeMarket))
	t.deps.Log.Infof(t.cfg.Symbol, "SELL EXECUTED %s at %s (value %s)", res.Filled, res.Price, res.Value().StringFixed(2))
	t.deps.Notifier.Sendf("[%s] SELL %s @ %s", t.cfg.Symbol, res.Filled, res.Price)
	return nil
}

// rejected logs a sizing rejection. Anything that is not a rejection is
// passed through as a tick error.
func (t *Trader) rejected(side string, err error) error {
	r, ok := sizing.AsRejection(err)
	if !ok {
		return err
	}
	t.deps.Metrics.Rejection(t.cfg.Symbol, string(r.Reason))
	t.deps.Log.Warnf(t.cfg.Symbol, "%s skipped: %s", side, r.Error())
	return nil
}
