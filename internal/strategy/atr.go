package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spot_bot/internal/indicator"
	"spot_bot/internal/models"
)

// ATRBand trades the deviation of price from its moving average against a
// band of +/- ATR*multiplier.
type ATRBand struct {
	maPeriod   int
	atrPeriod  int
	multiplier decimal.Decimal
}

func NewATRBand(maPeriod, atrPeriod int, multiplier decimal.Decimal) *ATRBand {
	return &ATRBand{maPeriod: maPeriod, atrPeriod: atrPeriod, multiplier: multiplier}
}

func (a *ATRBand) Name() models.StrategyType { return models.StrategyATR }

func (a *ATRBand) Indicators() indicator.Request {
	return indicator.Request{MAPeriod: a.maPeriod, ATRPeriod: a.atrPeriod}
}

func (a *ATRBand) Evaluate(snap models.Snapshot, ind indicator.Set, _ decimal.Decimal) Decision {
	band := ind.ATR.Mul(a.multiplier)
	sellTh, buyTh := band, band.Neg()

	if ind.Deviation.GreaterThanOrEqual(sellTh) && snap.BaseBalance.GreaterThan(models.DustThreshold) {
		return Decision{
			Action: models.ActionSell,
			Reason: fmt.Sprintf("deviation %s >= %s", ind.Deviation.StringFixed(6), sellTh.StringFixed(6)),
		}
	}
	if ind.Deviation.LessThanOrEqual(buyTh) {
		return Decision{
			Action:       models.ActionBuy,
			Reason:       fmt.Sprintf("deviation %s <= %s", ind.Deviation.StringFixed(6), buyTh.StringFixed(6)),
			ExpectedMove: ind.ATR,
		}
	}
	return hold("No signal")
}
