package models

import "github.com/shopspring/decimal"

// Candle is one OHLC bar; only the fields the indicators use are kept.
type Candle struct {
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Snapshot is everything fetched from the exchange during one tick.
// Candles are ordered oldest to newest.
type Snapshot struct {
	Symbol       string
	Price        decimal.Decimal
	Candles      []Candle
	BaseBalance  decimal.Decimal
	QuoteBalance decimal.Decimal
}

// DustThreshold is the holding below which a balance is treated as unsellable.
var DustThreshold = decimal.RequireFromString("0.01")
