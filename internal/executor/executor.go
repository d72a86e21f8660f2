package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/exchange"
	"spot_bot/internal/models"
)

var ErrNoFill = errors.New("no trades found for order")

const DefaultSettleDelay = 2 * time.Second

// Executor places orders and confirms market fills. It never retries; a
// failed submission is reported and the caller moves on to the next tick.
type Executor struct {
	client      exchange.Client
	settleDelay time.Duration
	newTag      func() string
}

func New(client exchange.Client, settleDelay time.Duration) *Executor {
	if settleDelay < 0 {
		settleDelay = 0
	}
	return &Executor{
		client:      client,
		settleDelay: settleDelay,
		newTag:      clientTag,
	}
}

// clientTag is the exchange-side text label, "t-" plus a uuid fragment.
func clientTag() string {
	return "t-" + uuid.NewString()[:18]
}

// MarketBuy buys qty at market. refPrice is the price the quantity was sized
// against.
func (e *Executor) MarketBuy(ctx context.Context, symbol string, qty, refPrice decimal.Decimal) (models.ExecutionResult, error) {
	return e.market(ctx, models.SideBuy, symbol, qty, refPrice)
}

func (e *Executor) MarketSell(ctx context.Context, symbol string, qty decimal.Decimal) (models.ExecutionResult, error) {
	return e.market(ctx, models.SideSell, symbol, qty, decimal.Zero)
}

// PlaceLimitSell places a good-till-cancelled sell and returns its id. The
// order is never assumed filled.
func (e *Executor) PlaceLimitSell(ctx context.Context, symbol string, qty, price decimal.Decimal) (string, error) {
	placed, err := e.client.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        models.SideSell,
		Amount:      qty,
		Price:       price,
		Type:        models.OrderTypeLimit,
		TimeInForce: models.TimeInForceGTC,
		ClientTag:   e.newTag(),
	})
	if err != nil {
		return "", errors.Wrap(err, "limit sell")
	}
	return placed.ID, nil
}

func (e *Executor) market(ctx context.Context, side models.Side, symbol string, qty, refPrice decimal.Decimal) (models.ExecutionResult, error) {
	placed, err := e.client.PlaceOrder(ctx, models.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Amount:      qty,
		Price:       refPrice,
		Type:        models.OrderTypeMarket,
		TimeInForce: models.TimeInForceIOC,
		ClientTag:   e.newTag(),
	})
	if err != nil {
		return models.ExecutionResult{}, errors.Wrapf(err, "market %s", side)
	}

	if e.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return models.ExecutionResult{}, ctx.Err()
		case <-time.After(e.settleDelay):
		}
	}

	trades, err := e.client.RecentTrades(ctx, symbol, placed.ID)
	if err != nil {
		return models.ExecutionResult{}, errors.Wrapf(err, "read fills of %s", placed.ID)
	}
	if len(trades) == 0 {
		return models.ExecutionResult{}, errors.Wrapf(ErrNoFill, "order %s", placed.ID)
	}

	last := trades[len(trades)-1]
	filled := decimal.Zero
	for _, t := range trades {
		filled = filled.Add(t.Amount)
	}
	return models.ExecutionResult{
		OrderID: placed.ID,
		Side:    side,
		Price:   last.Price,
		Filled:  filled,
	}, nil
}
