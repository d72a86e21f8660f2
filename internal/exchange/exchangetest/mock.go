// Package exchangetest provides a testify mock of exchange.Client.
package exchangetest

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"spot_bot/internal/models"
)

type Client struct {
	mock.Mock
}

func (c *Client) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := c.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	args := c.Called(ctx, symbol, interval, limit)
	candles, _ := args.Get(0).([]models.Candle)
	return candles, args.Error(1)
}

func (c *Client) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	args := c.Called(ctx, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.PlacedOrder, error) {
	args := c.Called(ctx, req)
	return args.Get(0).(models.PlacedOrder), args.Error(1)
}

func (c *Client) OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderStatus, error) {
	args := c.Called(ctx, symbol, orderID)
	return args.Get(0).(models.OrderStatus), args.Error(1)
}

func (c *Client) RecentTrades(ctx context.Context, symbol, orderID string) ([]models.Trade, error) {
	args := c.Called(ctx, symbol, orderID)
	trades, _ := args.Get(0).([]models.Trade)
	return trades, args.Error(1)
}
