package sizing

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
)

const (
	currencyPlaces = 2
	quantityPlaces = 4
)

type Reason string

const (
	ReasonNoFunds       Reason = "no funds available"
	ReasonBelowMinimum  Reason = "below minimum trade value"
	ReasonNothingToSell Reason = "nothing to sell"
	ReasonInvalidPrice  Reason = "invalid price"
)

// Rejection is a normal sizing outcome, not a failure.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return string(r.Reason) + ": " + r.Detail
}

func reject(reason Reason, format string, args ...any) error {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a sizing rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

type Params struct {
	RiskFraction  decimal.Decimal
	FixedAmount   decimal.Decimal
	MinTradeValue decimal.Decimal
	MinReserved   decimal.Decimal
}

func ParamsFrom(cfg models.SymbolConfig) Params {
	return Params{
		RiskFraction:  cfg.RiskFraction,
		FixedAmount:   cfg.FixedAmount,
		MinTradeValue: cfg.MinTradeValue,
		MinReserved:   cfg.MinReserved,
	}
}

// Order is a sized trade.
type Order struct {
	Allocation decimal.Decimal // quote amount the sizer set aside
	Quantity   decimal.Decimal // base amount to trade
	Value      decimal.Decimal // Quantity * price
}

type Sizer struct {
	p Params
}

func New(p Params) *Sizer {
	return &Sizer{p: p}
}

// Buy sizes a buy against the quote balance left above the reserve floor.
func (s *Sizer) Buy(price, quoteBalance decimal.Decimal) (Order, error) {
	return s.buy(price, quoteBalance, s.p.FixedAmount)
}

// Sell liquidates the whole base holding once it clears the dust threshold.
func (s *Sizer) Sell(price, baseBalance decimal.Decimal) (Order, error) {
	if !price.IsPositive() {
		return Order{}, reject(ReasonInvalidPrice, "price %s", price)
	}
	if baseBalance.LessThanOrEqual(models.DustThreshold) {
		return Order{}, reject(ReasonNothingToSell, "balance %s", baseBalance)
	}
	qty := baseBalance.Truncate(quantityPlaces)
	return s.checkValue(Order{Quantity: qty, Value: qty.Mul(price)})
}

// Fixed sizes an order of a fixed quote amount in either direction.
func (s *Sizer) Fixed(side models.Side, amount, price, baseBalance, quoteBalance decimal.Decimal) (Order, error) {
	if side == models.SideBuy {
		return s.buy(price, quoteBalance, amount)
	}
	if !price.IsPositive() {
		return Order{}, reject(ReasonInvalidPrice, "price %s", price)
	}
	alloc := amount.RoundBank(currencyPlaces)
	qty := alloc.Div(price).Truncate(quantityPlaces)
	if baseBalance.LessThan(qty) || !qty.IsPositive() {
		return Order{}, reject(ReasonNothingToSell, "need %s, hold %s", qty, baseBalance)
	}
	return s.checkValue(Order{Allocation: alloc, Quantity: qty, Value: qty.Mul(price)})
}

func (s *Sizer) buy(price, quoteBalance, fixed decimal.Decimal) (Order, error) {
	if !price.IsPositive() {
		return Order{}, reject(ReasonInvalidPrice, "price %s", price)
	}
	available := quoteBalance.Sub(s.p.MinReserved)
	if !available.IsPositive() {
		return Order{}, reject(ReasonNoFunds, "balance %s, reserve %s", quoteBalance, s.p.MinReserved)
	}

	var alloc decimal.Decimal
	if fixed.IsPositive() {
		alloc = decimal.Min(fixed, available)
	} else {
		alloc = available.Mul(s.p.RiskFraction)
	}
	alloc = alloc.RoundBank(currencyPlaces)
	if alloc.LessThan(s.p.MinTradeValue) {
		return Order{}, reject(ReasonBelowMinimum, "allocation %s < %s", alloc.StringFixed(currencyPlaces), s.p.MinTradeValue)
	}

	qty := alloc.Div(price).Truncate(quantityPlaces)
	return s.checkValue(Order{Allocation: alloc, Quantity: qty, Value: qty.Mul(price)})
}

// checkValue re-validates after rounding, which can push a borderline
// allocation under the floor.
func (s *Sizer) checkValue(o Order) (Order, error) {
	if !o.Quantity.IsPositive() || o.Value.LessThan(s.p.MinTradeValue) {
		return Order{}, reject(ReasonBelowMinimum, "value %s < %s", o.Value.StringFixed(currencyPlaces), s.p.MinTradeValue)
	}
	return o, nil
}
