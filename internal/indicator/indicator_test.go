package indicator

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/models"
)

func candle(high, low, close string) models.Candle {
	return models.Candle{
		High:  decimal.RequireFromString(high),
		Low:   decimal.RequireFromString(low),
		Close: decimal.RequireFromString(close),
	}
}

func TestATRUsesMostRecentWindow(t *testing.T) {
	candles := []models.Candle{
		candle("10", "1", "5"), // ignored, only the n+1 requirement
		candle("0.52", "0.50", "0.51"),
		candle("0.54", "0.50", "0.53"),
	}
	atr, err := ATR(candles, 2)
	require.NoError(t, err)
	assert.True(t, atr.Equal(decimal.RequireFromString("0.03")), atr.String())
}

func TestATRRejectsShortWindow(t *testing.T) {
	_, err := ATR([]models.Candle{candle("1", "1", "1"), candle("1", "1", "1")}, 2)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestMovingAverage(t *testing.T) {
	candles := []models.Candle{
		candle("1", "1", "9"),
		candle("1", "1", "0.50"),
		candle("1", "1", "0.60"),
	}
	ma, err := MovingAverage(candles, 2)
	require.NoError(t, err)
	assert.True(t, ma.Equal(decimal.RequireFromString("0.55")))

	_, err = MovingAverage(candles, 4)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestPercentChange(t *testing.T) {
	change, err := PercentChange([]models.Candle{candle("1", "1", "100"), candle("1", "1", "97")})
	require.NoError(t, err)
	assert.True(t, change.Equal(decimal.RequireFromString("-0.03")))

	_, err = PercentChange([]models.Candle{candle("1", "1", "1")})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestNonPositiveInputsAreRejected(t *testing.T) {
	bad := []models.Candle{candle("1", "1", "1"), candle("1", "0", "1")}
	_, err := ATR(bad, 1)
	assert.True(t, errors.Is(err, ErrInvalidCandle))

	_, err = PercentChange([]models.Candle{candle("1", "1", "0"), candle("1", "1", "1")})
	assert.True(t, errors.Is(err, ErrInvalidCandle))

	_, err = MovingAverage(bad, 0)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestATRNonNegativeAndMAWithinCloses(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 2 + rnd.Intn(30)
		candles := make([]models.Candle, n+1)
		for j := range candles {
			low := 0.01 + rnd.Float64()*10
			high := low + rnd.Float64()
			cl := low + (high-low)*rnd.Float64()
			candles[j] = models.Candle{
				High:  decimal.NewFromFloat(high),
				Low:   decimal.NewFromFloat(low),
				Close: decimal.NewFromFloat(cl),
			}
		}

		atr, err := ATR(candles, n)
		require.NoError(t, err)
		assert.False(t, atr.IsNegative())

		ma, err := MovingAverage(candles, n)
		require.NoError(t, err)
		lo, hi := candles[1].Close, candles[1].Close
		for _, c := range candles[1:] {
			lo = decimal.Min(lo, c.Close)
			hi = decimal.Max(hi, c.Close)
		}
		assert.True(t, ma.GreaterThanOrEqual(lo) && ma.LessThanOrEqual(hi), "ma %s outside [%s, %s]", ma, lo, hi)
	}
}

func TestRequestCandlesNeeded(t *testing.T) {
	assert.Equal(t, 2, Request{Change: true}.CandlesNeeded())
	assert.Equal(t, 20, Request{MAPeriod: 20, ATRPeriod: 10}.CandlesNeeded())
	assert.Equal(t, 31, Request{MAPeriod: 20, ATRPeriod: 30}.CandlesNeeded())
}

func TestComputeFillsRequestedIndicators(t *testing.T) {
	snap := models.Snapshot{
		Price: decimal.RequireFromString("0.50"),
		Candles: []models.Candle{
			candle("0.60", "0.40", "0.50"),
			candle("0.60", "0.40", "0.50"),
			candle("0.60", "0.40", "0.50"),
		},
	}
	set, err := Compute(snap, Request{MAPeriod: 3, ATRPeriod: 2, Change: true})
	require.NoError(t, err)
	assert.True(t, set.HasMA && set.HasATR && set.HasChange)
	assert.True(t, set.Deviation.IsZero())
	assert.True(t, set.ATR.Equal(decimal.RequireFromString("0.2")))
	assert.NotEmpty(t, set.String())
}
