package strategy

import (
	"github.com/shopspring/decimal"

	"spot_bot/internal/indicator"
	"spot_bot/internal/models"
)

// Decision is what a policy returns for one tick.
type Decision struct {
	Action models.Action
	Reason string

	// PairedSell is set by grid policies: every buy is followed by a limit sell.
	PairedSell *SellPlan

	// ExpectedMove is the per-unit price move a buy is expected to capture.
	// When set, a buy whose quantity*ExpectedMove falls short of the configured
	// minimum expected profit is skipped.
	ExpectedMove decimal.Decimal
}

// SellPlan describes how the take-profit order of a grid buy is priced.
type SellPlan struct {
	Margin decimal.Decimal
	// TakeProfitAbove, when positive, lets the sell be placed at the market
	// price if the market already trades at or above this level.
	TakeProfitAbove decimal.Decimal
}

// Target returns max(buy*margin, market) where the market leg only counts
// once the market has reached TakeProfitAbove.
func (p SellPlan) Target(buyPrice, marketPrice decimal.Decimal) decimal.Decimal {
	target := buyPrice.Mul(p.Margin)
	if p.TakeProfitAbove.IsPositive() && marketPrice.GreaterThanOrEqual(p.TakeProfitAbove) {
		target = decimal.Max(target, marketPrice)
	}
	return target.RoundBank(4)
}

// Policy maps a snapshot and its indicators to an action.
type Policy interface {
	Name() models.StrategyType
	Indicators() indicator.Request
	Evaluate(snap models.Snapshot, ind indicator.Set, openExposure decimal.Decimal) Decision
}

func hold(reason string) Decision {
	return Decision{Action: models.ActionHold, Reason: reason}
}
