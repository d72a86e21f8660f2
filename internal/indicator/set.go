package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
)

// Set holds whatever indicators a policy asked for on one tick.
type Set struct {
	MA        decimal.Decimal
	ATR       decimal.Decimal
	Change    decimal.Decimal // last-candle percent change
	Deviation decimal.Decimal // (price - MA) / MA

	HasMA     bool
	HasATR    bool
	HasChange bool
}

// Request names the windows to compute. Zero periods are skipped.
type Request struct {
	MAPeriod  int
	ATRPeriod int
	Change    bool
}

// CandlesNeeded is the window size that satisfies every requested indicator.
func (r Request) CandlesNeeded() int {
	need := 0
	if r.Change {
		need = 2
	}
	if r.MAPeriod > need {
		need = r.MAPeriod
	}
	if r.ATRPeriod > 0 && r.ATRPeriod+1 > need {
		need = r.ATRPeriod + 1
	}
	return need
}

// Compute derives the requested indicators from a snapshot.
func Compute(snap models.Snapshot, req Request) (Set, error) {
	var (
		set Set
		err error
	)
	if req.Change {
		if set.Change, err = PercentChange(snap.Candles); err != nil {
			return Set{}, err
		}
		set.HasChange = true
	}
	if req.MAPeriod > 0 {
		if set.MA, err = MovingAverage(snap.Candles, req.MAPeriod); err != nil {
			return Set{}, err
		}
		if set.Deviation, err = Deviation(snap.Price, set.MA); err != nil {
			return Set{}, err
		}
		set.HasMA = true
	}
	if req.ATRPeriod > 0 {
		if set.ATR, err = ATR(snap.Candles, req.ATRPeriod); err != nil {
			return Set{}, err
		}
		set.HasATR = true
	}
	return set, nil
}

func (s Set) String() string {
	out := ""
	if s.HasMA {
		out += fmt.Sprintf("MA: %s, ΔMA%%: %s%%", s.MA.StringFixed(6), s.Deviation.Shift(2).StringFixed(2))
	}
	if s.HasATR {
		if out != "" {
			out += ", "
		}
		out += "ATR: " + s.ATR.StringFixed(6)
	}
	if s.HasChange {
		if out != "" {
			out += ", "
		}
		out += "Δ%: " + s.Change.Shift(2).StringFixed(2) + "%"
	}
	return out
}
