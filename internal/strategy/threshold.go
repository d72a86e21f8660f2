package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spot_bot/internal/indicator"
	"spot_bot/internal/models"
)

// PercentChange trades the last-candle percent change against fixed
// thresholds. It backs both the threshold and the momentum variants; they
// differ only in how the trade is sized.
type PercentChange struct {
	kind models.StrategyType
	buy  decimal.Decimal
	sell decimal.Decimal
}

func NewPercentChange(kind models.StrategyType, buyThreshold, sellThreshold decimal.Decimal) *PercentChange {
	return &PercentChange{kind: kind, buy: buyThreshold, sell: sellThreshold}
}

func (p *PercentChange) Name() models.StrategyType { return p.kind }

func (p *PercentChange) Indicators() indicator.Request {
	return indicator.Request{Change: true}
}

// Evaluate checks SELL before BUY.
func (p *PercentChange) Evaluate(snap models.Snapshot, ind indicator.Set, _ decimal.Decimal) Decision {
	change := ind.Change
	pct := change.Shift(2).StringFixed(2)
	if change.GreaterThanOrEqual(p.sell) && snap.BaseBalance.GreaterThan(models.DustThreshold) {
		return Decision{
			Action: models.ActionSell,
			Reason: fmt.Sprintf("change %s%% >= sell threshold %s%%", pct, p.sell.Shift(2).String()),
		}
	}
	if change.LessThanOrEqual(p.buy) {
		return Decision{
			Action: models.ActionBuy,
			Reason: fmt.Sprintf("change %s%% <= buy threshold %s%%", pct, p.buy.Shift(2).String()),
		}
	}
	return hold("No signal")
}
