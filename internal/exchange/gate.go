package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
)

const (
	DefaultBaseURL = "https://api.gateio.ws/api/v4"
	quotePlaces    = 2
)

type GateConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Gate is the Gate.io spot v4 REST client.
type Gate struct {
	http      *http.Client
	baseURL   string
	basePath  string
	apiKey    string
	apiSecret string

	guard  *Guard
	prices *PriceCache
	now    func() time.Time
}

func NewGate(cfg GateConfig, guard *Guard, prices *PriceCache) (*Gate, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", base)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gate{
		http:      &http.Client{Timeout: timeout},
		baseURL:   base,
		basePath:  u.Path,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		guard:     guard,
		prices:    prices,
		now:       time.Now,
	}, nil
}

type ticker struct {
	CurrencyPair string          `json:"currency_pair"`
	Last         decimal.Decimal `json:"last"`
}

func (g *Gate) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p, ok := g.prices.Get(symbol); ok {
		return p, nil
	}

	var tickers []ticker
	q := url.Values{"currency_pair": {symbol}}
	if err := g.do(ctx, symbol, http.MethodGet, "/spot/tickers", q, nil, false, &tickers); err != nil {
		return decimal.Zero, errors.Wrapf(err, "ticker %s", symbol)
	}
	for _, t := range tickers {
		if t.CurrencyPair == symbol && t.Last.IsPositive() {
			return t.Last, nil
		}
	}
	return decimal.Zero, errors.Wrap(ErrNoTicker, symbol)
}

// Candle rows are [time, quote volume, close, high, low, open, base volume, closed].
func (g *Gate) Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var rows [][]string
	q := url.Values{
		"currency_pair": {symbol},
		"interval":      {interval},
		"limit":         {strconv.Itoa(limit)},
	}
	if err := g.do(ctx, symbol, http.MethodGet, "/spot/candlesticks", q, nil, false, &rows); err != nil {
		return nil, errors.Wrapf(err, "candles %s", symbol)
	}
	return parseCandles(rows)
}

func parseCandles(rows [][]string) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, errors.Wrapf(ErrBadResponse, "candle %d has %d fields", i, len(row))
		}
		var (
			c   models.Candle
			err error
		)
		if c.Close, err = decimal.NewFromString(row[2]); err != nil {
			return nil, errors.Wrapf(err, "candle %d close", i)
		}
		if c.High, err = decimal.NewFromString(row[3]); err != nil {
			return nil, errors.Wrapf(err, "candle %d high", i)
		}
		if c.Low, err = decimal.NewFromString(row[4]); err != nil {
			return nil, errors.Wrapf(err, "candle %d low", i)
		}
		out = append(out, c)
	}
	return out, nil
}

type account struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
}

func (g *Gate) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	var accounts []account
	q := url.Values{"currency": {currency}}
	if err := g.do(ctx, accountKey, http.MethodGet, "/spot/accounts", q, nil, true, &accounts); err != nil {
		return decimal.Zero, errors.Wrapf(err, "balance %s", currency)
	}
	for _, a := range accounts {
		if a.Currency == currency {
			return a.Available, nil
		}
	}
	return decimal.Zero, nil
}

type orderBody struct {
	Text         string `json:"text,omitempty"`
	CurrencyPair string `json:"currency_pair"`
	Type         string `json:"type"`
	Side         string `json:"side"`
	Amount       string `json:"amount"`
	Price        string `json:"price,omitempty"`
	TimeInForce  string `json:"time_in_force"`
}

type orderReply struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PlaceOrder submits one spot order. Amount is always in base units; for
// market buys, which Gate sizes in quote units, the amount is converted using
// req.Price as the reference price.
func (g *Gate) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.PlacedOrder, error) {
	if !req.Amount.IsPositive() {
		return models.PlacedOrder{}, ErrInvalidAmount
	}
	body := orderBody{
		Text:         req.ClientTag,
		CurrencyPair: req.Symbol,
		Type:         string(req.Type),
		Side:         string(req.Side),
		Amount:       req.Amount.String(),
		TimeInForce:  string(req.TimeInForce),
	}
	switch req.Type {
	case models.OrderTypeLimit:
		body.Price = req.Price.String()
	case models.OrderTypeMarket:
		if req.Side == models.SideBuy {
			if !req.Price.IsPositive() {
				return models.PlacedOrder{}, errors.New("market buy needs a reference price")
			}
			body.Amount = req.Amount.Mul(req.Price).RoundBank(quotePlaces).String()
		}
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return models.PlacedOrder{}, errors.Wrap(err, "marshal order")
	}
	var reply orderReply
	if err := g.do(ctx, req.Symbol, http.MethodPost, "/spot/orders", nil, payload, true, &reply); err != nil {
		return models.PlacedOrder{}, errors.Wrapf(err, "place %s %s %s", req.Type, req.Side, req.Symbol)
	}
	if reply.ID == "" {
		return models.PlacedOrder{}, errors.Wrap(ErrBadResponse, "order reply without id")
	}
	return models.PlacedOrder{ID: reply.ID, Status: models.OrderStatus(reply.Status)}, nil
}

func (g *Gate) OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderStatus, error) {
	var reply orderReply
	q := url.Values{"currency_pair": {symbol}}
	if err := g.do(ctx, symbol, http.MethodGet, "/spot/orders/"+url.PathEscape(orderID), q, nil, true, &reply); err != nil {
		return "", errors.Wrapf(err, "order %s", orderID)
	}
	return models.OrderStatus(reply.Status), nil
}

type trade struct {
	ID      string          `json:"id"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Price   decimal.Decimal `json:"price"`
}

func (g *Gate) RecentTrades(ctx context.Context, symbol, orderID string) ([]models.Trade, error) {
	var trades []trade
	q := url.Values{"currency_pair": {symbol}, "order_id": {orderID}}
	if err := g.do(ctx, symbol, http.MethodGet, "/spot/my_trades", q, nil, true, &trades); err != nil {
		return nil, errors.Wrapf(err, "trades for %s", orderID)
	}
	// Gate lists newest first.
	out := make([]models.Trade, 0, len(trades))
	for i := len(trades) - 1; i >= 0; i-- {
		if orderID != "" && trades[i].OrderID != orderID {
			continue
		}
		out = append(out, models.Trade{Price: trades[i].Price, Amount: trades[i].Amount})
	}
	return out, nil
}

// do runs one request through the guard; key selects the breaker.
func (g *Gate) do(ctx context.Context, key, method, path string, query url.Values, body []byte, signed bool, out any) error {
	return g.guard.Do(ctx, key, func() error {
		return g.roundTrip(ctx, method, path, query, body, signed, out)
	})
}

func (g *Gate) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, signed bool, out any) error {
	rawQuery := query.Encode()
	target := g.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if g.apiKey == "" || g.apiSecret == "" {
			return ErrMissingCreds
		}
		ts := strconv.FormatInt(g.now().Unix(), 10)
		req.Header.Set("KEY", g.apiKey)
		req.Header.Set("Timestamp", ts)
		req.Header.Set("SIGN", sign(g.apiSecret, method, g.basePath+path, rawQuery, body, ts))
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(data)}
		var e struct {
			Label   string `json:"label"`
			Message string `json:"message"`
		}
		if sonic.Unmarshal(data, &e) == nil && e.Label != "" {
			apiErr.Label, apiErr.Message = e.Label, e.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// sign builds the v4 signature:
// hex(hmac_sha512(secret, method\npath\nquery\nhex(sha512(body))\ntimestamp)).
func sign(secret, method, path, query string, body []byte, ts string) string {
	bodyHash := sha512.Sum512(body)
	msg := method + "\n" + path + "\n" + query + "\n" + hex.EncodeToString(bodyHash[:]) + "\n" + ts
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}
