package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spot_bot/internal/indicator"
	"spot_bot/internal/models"
)

// Grid buys on every tick while open exposure stays under the ceiling and
// pairs each buy with a take-profit limit sell. A zero ceiling never buys.
type Grid struct {
	margin      decimal.Decimal
	maxExposure decimal.Decimal
}

func NewGrid(margin, maxExposure decimal.Decimal) *Grid {
	return &Grid{margin: margin, maxExposure: maxExposure}
}

func (g *Grid) Name() models.StrategyType { return models.StrategyGrid }

func (g *Grid) Indicators() indicator.Request { return indicator.Request{} }

func (g *Grid) Evaluate(_ models.Snapshot, _ indicator.Set, openExposure decimal.Decimal) Decision {
	if openExposure.GreaterThanOrEqual(g.maxExposure) {
		return hold(fmt.Sprintf("Max exposure reached: %s / %s", openExposure.StringFixed(2), g.maxExposure.StringFixed(2)))
	}
	return Decision{
		Action:     models.ActionBuy,
		Reason:     fmt.Sprintf("exposure %s / %s", openExposure.StringFixed(2), g.maxExposure.StringFixed(2)),
		PairedSell: &SellPlan{Margin: g.margin},
	}
}

// DynamicGrid only buys once price dips below MA*buyOffset and takes profit
// early when the market already trades above MA*sellOffset.
type DynamicGrid struct {
	maPeriod   int
	margin     decimal.Decimal
	buyOffset  decimal.Decimal
	sellOffset decimal.Decimal
}

func NewDynamicGrid(maPeriod int, margin, buyOffset, sellOffset decimal.Decimal) *DynamicGrid {
	return &DynamicGrid{maPeriod: maPeriod, margin: margin, buyOffset: buyOffset, sellOffset: sellOffset}
}

func (g *DynamicGrid) Name() models.StrategyType { return models.StrategyGridDynamic }

func (g *DynamicGrid) Indicators() indicator.Request {
	return indicator.Request{MAPeriod: g.maPeriod}
}

func (g *DynamicGrid) Evaluate(snap models.Snapshot, ind indicator.Set, _ decimal.Decimal) Decision {
	entry := ind.MA.Mul(g.buyOffset)
	if snap.Price.GreaterThan(entry) {
		return hold(fmt.Sprintf("price %s above entry %s", snap.Price.String(), entry.StringFixed(6)))
	}
	return Decision{
		Action: models.ActionBuy,
		Reason: fmt.Sprintf("price %s <= entry %s", snap.Price.String(), entry.StringFixed(6)),
		PairedSell: &SellPlan{
			Margin:          g.margin,
			TakeProfitAbove: ind.MA.Mul(g.sellOffset),
		},
	}
}
