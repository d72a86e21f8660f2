package models

import "strings"

type StrategyType string

const (
	StrategyThreshold   StrategyType = "threshold"
	StrategyMomentum    StrategyType = "momentum"
	StrategyATR         StrategyType = "atr"
	StrategyGrid        StrategyType = "grid"
	StrategyGridDynamic StrategyType = "grid_dynamic"
)

// IsGrid reports whether the strategy pairs every buy with a persisted limit sell.
func (s StrategyType) IsGrid() bool {
	return s == StrategyGrid || s == StrategyGridDynamic
}

// Action is what a policy wants the trader to do on this tick.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Side is the exchange order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return SideBuy, true
	case "sell":
		return SideSell, true
	default:
		return "", false
	}
}
