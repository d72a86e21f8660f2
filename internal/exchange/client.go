package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
)

// Client is the market data and order surface every trader talks to.
// Implementations sign private calls themselves; callers never see credentials.
type Client interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// Candles returns up to limit bars ordered oldest to newest.
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	// Balance is the available (unlocked) amount of a currency.
	Balance(ctx context.Context, currency string) (decimal.Decimal, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.PlacedOrder, error)
	OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderStatus, error)
	// RecentTrades lists fills of one order, most recent last.
	RecentTrades(ctx context.Context, symbol, orderID string) ([]models.Trade, error)
}
