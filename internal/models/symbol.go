package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SymbolConfig is the immutable per-trader configuration.
type SymbolConfig struct {
	Symbol   string
	Strategy StrategyType

	// RiskFraction sizes buys as a share of the available balance.
	// FixedAmount, when positive, replaces it with a fixed quote amount.
	RiskFraction decimal.Decimal
	FixedAmount  decimal.Decimal

	BuyThreshold  decimal.Decimal // percent-change variants, negative
	SellThreshold decimal.Decimal // percent-change variants, positive
	ATRMultiplier decimal.Decimal
	BuyOffset     decimal.Decimal // grid_dynamic: buy when price <= MA * BuyOffset
	SellOffset    decimal.Decimal // grid_dynamic: take profit when price >= MA * SellOffset
	ProfitMargin  decimal.Decimal
	MaxExposure   decimal.Decimal

	MinExpectedProfit decimal.Decimal

	ATRPeriod int
	MAPeriod  int

	MinTradeValue  decimal.Decimal
	MinReserved    decimal.Decimal
	QuoteCurrency  string
	CandleInterval string
	CheckInterval  time.Duration
}

// Base returns the asset currency of a BASE_QUOTE pair.
func (c SymbolConfig) Base() string {
	if i := strings.IndexByte(c.Symbol, '_'); i > 0 {
		return c.Symbol[:i]
	}
	return c.Symbol
}

// Quote returns the quote currency, falling back to the pair suffix.
func (c SymbolConfig) Quote() string {
	if c.QuoteCurrency != "" {
		return c.QuoteCurrency
	}
	if i := strings.IndexByte(c.Symbol, '_'); i > 0 && i < len(c.Symbol)-1 {
		return c.Symbol[i+1:]
	}
	return "USDT"
}
