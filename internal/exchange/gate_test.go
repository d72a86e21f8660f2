package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/models"
)

func newTestGate(t *testing.T, h http.Handler) *Gate {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGate(GateConfig{BaseURL: srv.URL + "/api/v4", APIKey: "key", APISecret: "secret"}, NewGuard("test", 1000, 10), nil)
	require.NoError(t, err)
	g.now = func() time.Time { return time.Unix(1700000000, 0) }
	return g
}

func TestCurrentPrice(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/spot/tickers", r.URL.Path)
		assert.Equal(t, "XRP_USDT", r.URL.Query().Get("currency_pair"))
		_, _ = w.Write([]byte(`[{"currency_pair":"XRP_USDT","last":"0.5123"}]`))
	}))

	p, err := g.CurrentPrice(context.Background(), "XRP_USDT")
	require.NoError(t, err)
	assert.Equal(t, "0.5123", p.String())
}

func TestCurrentPricePrefersFreshCache(t *testing.T) {
	var calls int32
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`[{"currency_pair":"XRP_USDT","last":"1"}]`))
	}))
	g.prices = NewPriceCache(time.Minute)
	g.prices.Set("XRP_USDT", decimal.RequireFromString("0.7"))

	p, err := g.CurrentPrice(context.Background(), "XRP_USDT")
	require.NoError(t, err)
	assert.Equal(t, "0.7", p.String())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCandlesUseCloseHighLowColumns(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`[
			["1700000000","100","0.51","0.53","0.49","0.50","200","true"],
			["1700000060","100","0.52","0.54","0.50","0.51","200","true"]
		]`))
	}))

	candles, err := g.Candles(context.Background(), "XRP_USDT", "1m", 3)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, "0.51", candles[0].Close.String())
	assert.Equal(t, "0.53", candles[0].High.String())
	assert.Equal(t, "0.49", candles[0].Low.String())
	assert.Equal(t, "0.52", candles[1].Close.String())
}

func TestSignedRequestCarriesValidSignature(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodyHash := sha512.Sum512(body)
		msg := r.Method + "\n" + r.URL.Path + "\n" + r.URL.RawQuery + "\n" + hex.EncodeToString(bodyHash[:]) + "\n" + r.Header.Get("Timestamp")
		mac := hmac.New(sha512.New, []byte("secret"))
		mac.Write([]byte(msg))

		assert.Equal(t, "key", r.Header.Get("KEY"))
		assert.Equal(t, "1700000000", r.Header.Get("Timestamp"))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("SIGN"))
		_, _ = w.Write([]byte(`[{"currency":"USDT","available":"1000.5","locked":"3"}]`))
	}))

	bal, err := g.Balance(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Equal(t, "1000.5", bal.String())
}

func TestBalanceMissingCurrencyIsZero(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	bal, err := g.Balance(context.Background(), "XRP")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestPlaceMarketBuyConvertsToQuoteAmount(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body orderBody
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &body))
		assert.Equal(t, "90", body.Amount)
		assert.Empty(t, body.Price)
		assert.Equal(t, "ioc", body.TimeInForce)
		assert.Equal(t, "t-abc", body.Text)
		_, _ = w.Write([]byte(`{"id":"123","status":"closed"}`))
	}))

	placed, err := g.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:      "XRP_USDT",
		Side:        models.SideBuy,
		Amount:      decimal.RequireFromString("180"),
		Price:       decimal.RequireFromString("0.5"),
		Type:        models.OrderTypeMarket,
		TimeInForce: models.TimeInForceIOC,
		ClientTag:   "t-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "123", placed.ID)
	assert.Equal(t, models.OrderStatusClosed, placed.Status)
}

func TestPlaceLimitSellSendsPrice(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body orderBody
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &body))
		assert.Equal(t, "10.5", body.Amount)
		assert.Equal(t, "0.51", body.Price)
		assert.Equal(t, "gtc", body.TimeInForce)
		_, _ = w.Write([]byte(`{"id":"77","status":"open"}`))
	}))

	placed, err := g.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:      "XRP_USDT",
		Side:        models.SideSell,
		Amount:      decimal.RequireFromString("10.5"),
		Price:       decimal.RequireFromString("0.51"),
		Type:        models.OrderTypeLimit,
		TimeInForce: models.TimeInForceGTC,
	})
	require.NoError(t, err)
	assert.Equal(t, "77", placed.ID)
}

func TestAPIErrorCarriesLabel(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"label":"BALANCE_NOT_ENOUGH","message":"Not enough balance"}`))
	}))

	_, err := g.OrderStatus(context.Background(), "XRP_USDT", "1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "BALANCE_NOT_ENOUGH", apiErr.Label)
	assert.False(t, apiErr.Temporary())
}

func TestRecentTradesOldestFirst(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9", r.URL.Query().Get("order_id"))
		_, _ = w.Write([]byte(`[
			{"id":"2","order_id":"9","amount":"5","price":"0.52"},
			{"id":"1","order_id":"9","amount":"3","price":"0.51"}
		]`))
	}))

	trades, err := g.RecentTrades(context.Background(), "XRP_USDT", "9")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "0.51", trades[0].Price.String())
	assert.Equal(t, "0.52", trades[1].Price.String())
}

func TestGuardOpensAfterServerFailures(t *testing.T) {
	var calls int32
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		_, err := g.CurrentPrice(context.Background(), "XRP_USDT")
		require.Error(t, err)
	}
	_, err := g.CurrentPrice(context.Background(), "XRP_USDT")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.EqualValues(t, 5, atomic.LoadInt32(&calls))
}

func TestGuardIgnoresClientFaults(t *testing.T) {
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	for i := 0; i < 10; i++ {
		_, _ = g.OrderStatus(context.Background(), "XRP_USDT", "1")
	}
	assert.Equal(t, gobreaker.StateClosed, g.guard.State("XRP_USDT"))
}

func TestGuardIsolatesPairs(t *testing.T) {
	var dogeCalls int32
	g := newTestGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("currency_pair") == "DOGE_USDT" {
			atomic.AddInt32(&dogeCalls, 1)
			_, _ = w.Write([]byte(`[{"currency_pair":"DOGE_USDT","last":"0.1"}]`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		_, _ = g.CurrentPrice(context.Background(), "XRP_USDT")
	}
	assert.Equal(t, gobreaker.StateOpen, g.guard.State("XRP_USDT"))

	p, err := g.CurrentPrice(context.Background(), "DOGE_USDT")
	require.NoError(t, err)
	assert.Equal(t, "0.1", p.String())
	assert.EqualValues(t, 1, atomic.LoadInt32(&dogeCalls))
	assert.Equal(t, gobreaker.StateClosed, g.guard.State("DOGE_USDT"))
	assert.Equal(t, gobreaker.StateClosed, g.guard.State(""))
}

func TestSignedCallWithoutCredentials(t *testing.T) {
	g := newTestGate(t, http.NotFoundHandler())
	g.apiKey = ""
	_, err := g.Balance(context.Background(), "USDT")
	assert.True(t, errors.Is(err, ErrMissingCreds))
}
