package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spot_bot/pkg/logger"
)

const DefaultWSURL = "wss://api.gateio.ws/ws/v4/"

// PriceCache keeps the last streamed price per symbol. A nil cache is
// valid and always misses.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]cachedPrice
	maxAge time.Duration
	now    func() time.Time
}

type cachedPrice struct {
	price decimal.Decimal
	at    time.Time
}

func NewPriceCache(maxAge time.Duration) *PriceCache {
	return &PriceCache{
		prices: make(map[string]cachedPrice),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (c *PriceCache) Set(symbol string, price decimal.Decimal) {
	if c == nil || !price.IsPositive() {
		return
	}
	c.mu.Lock()
	c.prices[symbol] = cachedPrice{price: price, at: c.now()}
	c.mu.Unlock()
}

// Get returns a price only while it is younger than maxAge.
func (c *PriceCache) Get(symbol string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	c.mu.RLock()
	p, ok := c.prices[symbol]
	c.mu.RUnlock()
	if !ok || c.now().Sub(p.at) > c.maxAge {
		return decimal.Zero, false
	}
	return p.price, true
}

// TickerStream subscribes to spot.tickers and feeds a PriceCache.
type TickerStream struct {
	url    string
	dialer *websocket.Dialer
	cache  *PriceCache
	log    *logger.Logger

	pingEvery time.Duration
	backoff   time.Duration

	// OnConnect, when set, is told about every subscribe and disconnect.
	OnConnect func(connected bool)
}

func NewTickerStream(url string, cache *PriceCache, log *logger.Logger) *TickerStream {
	if url == "" {
		url = DefaultWSURL
	}
	return &TickerStream{
		url:       url,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		cache:     cache,
		log:       log,
		pingEvery: 15 * time.Second,
		backoff:   time.Second,
	}
}

type wsRequest struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event,omitempty"`
	Payload []string `json:"payload,omitempty"`
}

type wsFrame struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Result  struct {
		CurrencyPair string          `json:"currency_pair"`
		Last         decimal.Decimal `json:"last"`
	} `json:"result"`
}

// Run reconnects until ctx is cancelled.
func (s *TickerStream) Run(ctx context.Context, symbols []string) {
	if len(symbols) == 0 {
		return
	}
	for {
		if err := s.session(ctx, symbols); err != nil && ctx.Err() == nil {
			s.log.Zap().Warn("ticker stream dropped", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
		}
	}
}

func (s *TickerStream) session(ctx context.Context, symbols []string) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(req wsRequest) error {
		b, err := sonic.Marshal(req)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, b)
	}

	sub := wsRequest{Time: time.Now().Unix(), Channel: "spot.tickers", Event: "subscribe", Payload: symbols}
	if err := write(sub); err != nil {
		return err
	}
	s.log.Zap().Info("ticker stream subscribed", zap.Strings("symbols", symbols))
	s.connected(true)
	defer s.connected(false)

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(s.pingEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-t.C:
				_ = write(wsRequest{Time: time.Now().Unix(), Channel: "spot.ping"})
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame wsFrame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Channel != "spot.tickers" || frame.Event != "update" {
			continue
		}
		s.cache.Set(frame.Result.CurrencyPair, frame.Result.Last)
	}
}

func (s *TickerStream) connected(v bool) {
	if s.OnConnect != nil {
		s.OnConnect(v)
	}
}
