package strategy

import (
	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// New builds the policy named by the symbol configuration.
func New(cfg models.SymbolConfig) (Policy, error) {
	switch cfg.Strategy {
	case models.StrategyThreshold, models.StrategyMomentum:
		return NewPercentChange(cfg.Strategy, cfg.BuyThreshold, cfg.SellThreshold), nil
	case models.StrategyATR:
		return NewATRBand(cfg.MAPeriod, cfg.ATRPeriod, cfg.ATRMultiplier), nil
	case models.StrategyGrid:
		return NewGrid(cfg.ProfitMargin, cfg.MaxExposure), nil
	case models.StrategyGridDynamic:
		return NewDynamicGrid(cfg.MAPeriod, cfg.ProfitMargin, cfg.BuyOffset, cfg.SellOffset), nil
	default:
		return nil, errors.Wrapf(ErrUnknownStrategy, "%q", cfg.Strategy)
	}
}
