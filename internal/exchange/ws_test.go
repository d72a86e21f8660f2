package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/pkg/logger"
)

func TestPriceCacheExpires(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewPriceCache(time.Second)
	c.now = func() time.Time { return now }

	c.Set("XRP_USDT", decimal.RequireFromString("0.5"))
	_, ok := c.Get("XRP_USDT")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("XRP_USDT")
	assert.False(t, ok)

	var nilCache *PriceCache
	_, ok = nilCache.Get("XRP_USDT")
	assert.False(t, ok)
}

func TestTickerStreamFillsCache(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		assert.Contains(t, string(msg), `"spot.tickers"`)
		assert.Contains(t, string(msg), `"XRP_USDT"`)

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"spot.tickers","event":"subscribe","result":{"status":"success"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"spot.tickers","event":"update","result":{"currency_pair":"XRP_USDT","last":"0.6123"}}`))
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cache := NewPriceCache(time.Minute)
	stream := NewTickerStream("ws"+strings.TrimPrefix(srv.URL, "http"), cache, logger.Nop())
	var connected atomic.Bool
	stream.OnConnect = func(v bool) {
		if v {
			connected.Store(true)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx, []string{"XRP_USDT"})

	require.Eventually(t, func() bool {
		_, ok := cache.Get("XRP_USDT")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	p, _ := cache.Get("XRP_USDT")
	assert.Equal(t, "0.6123", p.String())
	assert.True(t, connected.Load())
}
