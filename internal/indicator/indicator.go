// Package indicator computes the price statistics the trading policies use.
// All functions are pure and operate on candles ordered oldest to newest.
package indicator

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
)

var (
	ErrInsufficientData = errors.New("insufficient candle data")
	ErrInvalidCandle    = errors.New("candle values must be positive")
	ErrInvalidPeriod    = errors.New("indicator period must be positive")
)

// ATR is the mean high-low range over the most recent n candles. The caller
// must supply at least n+1 candles.
func ATR(candles []models.Candle, n int) (decimal.Decimal, error) {
	if n <= 0 {
		return decimal.Zero, ErrInvalidPeriod
	}
	if len(candles) < n+1 {
		return decimal.Zero, errors.Wrapf(ErrInsufficientData, "atr needs %d candles, got %d", n+1, len(candles))
	}
	window := candles[len(candles)-n:]
	sum := decimal.Zero
	for _, c := range window {
		if err := validate(c); err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(c.High.Sub(c.Low).Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(n))), nil
}

// MovingAverage is the mean close of the most recent m candles.
func MovingAverage(candles []models.Candle, m int) (decimal.Decimal, error) {
	if m <= 0 {
		return decimal.Zero, ErrInvalidPeriod
	}
	if len(candles) < m {
		return decimal.Zero, errors.Wrapf(ErrInsufficientData, "ma needs %d candles, got %d", m, len(candles))
	}
	sum := decimal.Zero
	for _, c := range candles[len(candles)-m:] {
		if err := validate(c); err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(c.Close)
	}
	return sum.Div(decimal.NewFromInt(int64(m))), nil
}

// PercentChange is the fractional change between the last two closes.
func PercentChange(candles []models.Candle) (decimal.Decimal, error) {
	if len(candles) < 2 {
		return decimal.Zero, errors.Wrapf(ErrInsufficientData, "percent change needs 2 candles, got %d", len(candles))
	}
	prev, last := candles[len(candles)-2], candles[len(candles)-1]
	if err := validate(prev); err != nil {
		return decimal.Zero, err
	}
	if err := validate(last); err != nil {
		return decimal.Zero, err
	}
	return last.Close.Sub(prev.Close).Div(prev.Close), nil
}

// Deviation is the fractional distance of price from a reference value.
func Deviation(price, reference decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() || !reference.IsPositive() {
		return decimal.Zero, ErrInvalidCandle
	}
	return price.Sub(reference).Div(reference), nil
}

func validate(c models.Candle) error {
	if !c.High.IsPositive() || !c.Low.IsPositive() || !c.Close.IsPositive() {
		return ErrInvalidCandle
	}
	return nil
}
