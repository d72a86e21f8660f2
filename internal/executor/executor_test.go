package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/exchange/exchangetest"
	"spot_bot/internal/models"
)

var d = decimal.RequireFromString

func TestMarketBuyReadsBackFill(t *testing.T) {
	client := &exchangetest.Client{}
	client.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(r models.OrderRequest) bool {
		return r.Side == models.SideBuy && r.Type == models.OrderTypeMarket &&
			r.TimeInForce == models.TimeInForceIOC && r.Amount.Equal(d("180")) &&
			r.Price.Equal(d("0.5")) && strings.HasPrefix(r.ClientTag, "t-")
	})).Return(models.PlacedOrder{ID: "42"}, nil)
	client.On("RecentTrades", mock.Anything, "XRP_USDT", "42").Return([]models.Trade{
		{Price: d("0.50"), Amount: d("100")},
		{Price: d("0.51"), Amount: d("80")},
	}, nil)

	res, err := New(client, 0).MarketBuy(context.Background(), "XRP_USDT", d("180"), d("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "42", res.OrderID)
	assert.True(t, res.Price.Equal(d("0.51")))
	assert.True(t, res.Filled.Equal(d("180")))
	client.AssertExpectations(t)
}

func TestMarketSellWithoutTradesFails(t *testing.T) {
	client := &exchangetest.Client{}
	client.On("PlaceOrder", mock.Anything, mock.Anything).Return(models.PlacedOrder{ID: "7"}, nil)
	client.On("RecentTrades", mock.Anything, "XRP_USDT", "7").Return([]models.Trade{}, nil)

	_, err := New(client, 0).MarketSell(context.Background(), "XRP_USDT", d("10"))
	assert.True(t, errors.Is(err, ErrNoFill))
}

func TestSubmissionErrorIsNotRetried(t *testing.T) {
	client := &exchangetest.Client{}
	client.On("PlaceOrder", mock.Anything, mock.Anything).Return(models.PlacedOrder{}, errors.New("boom")).Once()

	_, err := New(client, 0).MarketSell(context.Background(), "XRP_USDT", d("10"))
	require.Error(t, err)
	client.AssertNumberOfCalls(t, "PlaceOrder", 1)
	client.AssertNotCalled(t, "RecentTrades", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceLimitSell(t *testing.T) {
	client := &exchangetest.Client{}
	client.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(r models.OrderRequest) bool {
		return r.Type == models.OrderTypeLimit && r.TimeInForce == models.TimeInForceGTC &&
			r.Price.Equal(d("0.51")) && r.Side == models.SideSell
	})).Return(models.PlacedOrder{ID: "s-1", Status: models.OrderStatusOpen}, nil)

	id, err := New(client, 0).PlaceLimitSell(context.Background(), "XRP_USDT", d("10"), d("0.51"))
	require.NoError(t, err)
	assert.Equal(t, "s-1", id)
	client.AssertNotCalled(t, "RecentTrades", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleDelayHonoursCancellation(t *testing.T) {
	client := &exchangetest.Client{}
	client.On("PlaceOrder", mock.Anything, mock.Anything).Return(models.PlacedOrder{ID: "1"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(client, DefaultSettleDelay).MarketSell(ctx, "XRP_USDT", d("1"))
	assert.True(t, errors.Is(err, context.Canceled))
}
