package strategy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_bot/internal/indicator"
	"spot_bot/internal/models"
)

var d = decimal.RequireFromString

func TestPercentChangeBuyIsInclusiveAtBoundary(t *testing.T) {
	p := NewPercentChange(models.StrategyThreshold, d("-0.02"), d("0.02"))
	snap := models.Snapshot{Price: d("1")}

	dec := p.Evaluate(snap, indicator.Set{Change: d("-0.03"), HasChange: true}, decimal.Zero)
	assert.Equal(t, models.ActionBuy, dec.Action)

	dec = p.Evaluate(snap, indicator.Set{Change: d("-0.02"), HasChange: true}, decimal.Zero)
	assert.Equal(t, models.ActionBuy, dec.Action)

	dec = p.Evaluate(snap, indicator.Set{Change: d("-0.0199"), HasChange: true}, decimal.Zero)
	assert.Equal(t, models.ActionHold, dec.Action)
}

func TestPercentChangeSellNeedsHoldings(t *testing.T) {
	p := NewPercentChange(models.StrategyMomentum, d("-0.02"), d("0.02"))
	up := indicator.Set{Change: d("0.02"), HasChange: true}

	dec := p.Evaluate(models.Snapshot{BaseBalance: d("0.01")}, up, decimal.Zero)
	assert.Equal(t, models.ActionHold, dec.Action)

	dec = p.Evaluate(models.Snapshot{BaseBalance: d("5")}, up, decimal.Zero)
	assert.Equal(t, models.ActionSell, dec.Action)
}

func TestPolicyNeverReturnsBothSides(t *testing.T) {
	p := NewPercentChange(models.StrategyThreshold, d("-0.01"), d("0.01"))
	for i := -300; i <= 300; i++ {
		change := decimal.New(int64(i), -4)
		dec := p.Evaluate(models.Snapshot{BaseBalance: d("10")}, indicator.Set{Change: change}, decimal.Zero)
		buyCond := change.LessThanOrEqual(d("-0.01"))
		sellCond := change.GreaterThanOrEqual(d("0.01"))
		require.False(t, buyCond && sellCond)
		switch dec.Action {
		case models.ActionBuy:
			assert.True(t, buyCond)
		case models.ActionSell:
			assert.True(t, sellCond)
		default:
			assert.False(t, buyCond || sellCond)
		}
	}
}

func TestATRBandSellTakesPriorityOnZeroBand(t *testing.T) {
	a := NewATRBand(20, 10, d("0.7"))
	ind := indicator.Set{ATR: decimal.Zero, Deviation: decimal.Zero, HasMA: true, HasATR: true}

	dec := a.Evaluate(models.Snapshot{BaseBalance: d("3")}, ind, decimal.Zero)
	assert.Equal(t, models.ActionSell, dec.Action)

	dec = a.Evaluate(models.Snapshot{BaseBalance: decimal.Zero}, ind, decimal.Zero)
	assert.Equal(t, models.ActionBuy, dec.Action)
}

func TestATRBandBuyCarriesExpectedMove(t *testing.T) {
	a := NewATRBand(20, 10, d("0.5"))
	ind := indicator.Set{ATR: d("0.02"), Deviation: d("-0.01")}

	dec := a.Evaluate(models.Snapshot{}, ind, decimal.Zero)
	require.Equal(t, models.ActionBuy, dec.Action)
	assert.True(t, dec.ExpectedMove.Equal(d("0.02")))

	ind.Deviation = d("-0.0099")
	assert.Equal(t, models.ActionHold, a.Evaluate(models.Snapshot{}, ind, decimal.Zero).Action)
}

func TestGridRespectsExposureCeiling(t *testing.T) {
	g := NewGrid(d("1.02"), d("200"))

	dec := g.Evaluate(models.Snapshot{}, indicator.Set{}, d("199.99"))
	require.Equal(t, models.ActionBuy, dec.Action)
	require.NotNil(t, dec.PairedSell)
	assert.True(t, dec.PairedSell.Target(d("0.50"), d("0.50")).Equal(d("0.51")))

	dec = g.Evaluate(models.Snapshot{}, indicator.Set{}, d("200"))
	assert.Equal(t, models.ActionHold, dec.Action)
}

func TestGridWithoutCeilingNeverBuys(t *testing.T) {
	g := NewGrid(d("1.02"), decimal.Zero)
	dec := g.Evaluate(models.Snapshot{}, indicator.Set{}, decimal.Zero)
	assert.Equal(t, models.ActionHold, dec.Action)
}

func TestDynamicGridEntryAndTakeProfit(t *testing.T) {
	g := NewDynamicGrid(20, d("1.01"), d("0.99"), d("1.02"))
	ind := indicator.Set{MA: d("1.00"), HasMA: true}

	dec := g.Evaluate(models.Snapshot{Price: d("0.991")}, ind, decimal.Zero)
	assert.Equal(t, models.ActionHold, dec.Action)

	dec = g.Evaluate(models.Snapshot{Price: d("0.99")}, ind, decimal.Zero)
	require.Equal(t, models.ActionBuy, dec.Action)
	plan := dec.PairedSell
	require.NotNil(t, plan)

	// market below the take-profit level: default margin
	assert.True(t, plan.Target(d("0.99"), d("1.01")).Equal(d("0.9999")))
	// market above the level and above buy*margin: sell at market
	assert.True(t, plan.Target(d("0.99"), d("1.05")).Equal(d("1.05")))
}

func TestFactory(t *testing.T) {
	for _, kind := range []models.StrategyType{
		models.StrategyThreshold, models.StrategyMomentum, models.StrategyATR,
		models.StrategyGrid, models.StrategyGridDynamic,
	} {
		p, err := New(models.SymbolConfig{Strategy: kind, MAPeriod: 20, ATRPeriod: 10})
		require.NoError(t, err)
		assert.Equal(t, kind, p.Name())
	}

	_, err := New(models.SymbolConfig{Strategy: "donchian"})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}
