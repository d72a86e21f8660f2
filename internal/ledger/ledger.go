package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/models"
	"spot_bot/pkg/logger"
)

// ErrDuplicateOrder is returned when a sell order id is recorded twice.
var ErrDuplicateOrder = errors.New("sell order already recorded")

// Store persists order records. Implementations scope every query by symbol.
type Store interface {
	Insert(ctx context.Context, rec models.OrderRecord) (models.OrderRecord, error)
	MarkClosed(ctx context.Context, symbol, sellOrderID string, at time.Time) (bool, error)
	ListOpen(ctx context.Context, symbol string) ([]models.OrderRecord, error)
	ListAll(ctx context.Context, symbol string) ([]models.OrderRecord, error)
}

// StatusChecker reports the exchange state of a sell order.
type StatusChecker interface {
	OrderStatus(ctx context.Context, symbol, orderID string) (models.OrderStatus, error)
}

// Ledger tracks grid buys and their take-profit sells for one symbol.
// Rows only ever move from open to closed.
type Ledger struct {
	symbol string
	store  Store
	log    *logger.Logger
	now    func() time.Time
}

func New(symbol string, store Store, log *logger.Logger) *Ledger {
	return &Ledger{
		symbol: symbol,
		store:  store,
		log:    log,
		now:    time.Now,
	}
}

func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) Record(ctx context.Context, buyPrice, amount, sellPrice decimal.Decimal, sellOrderID string) (models.OrderRecord, error) {
	if sellOrderID == "" {
		return models.OrderRecord{}, errors.New("empty sell order id")
	}
	now := l.now().UTC()
	rec, err := l.store.Insert(ctx, models.OrderRecord{
		Symbol:      l.symbol,
		BuyPrice:    buyPrice,
		Amount:      amount,
		SellPrice:   sellPrice,
		SellOrderID: sellOrderID,
		Status:      models.RecordOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return models.OrderRecord{}, errors.Wrapf(err, "record sell %s", sellOrderID)
	}
	return rec, nil
}

// Reconcile closes every open row whose sell order the exchange reports as
// closed. A failing row is logged and skipped.
func (l *Ledger) Reconcile(ctx context.Context, checker StatusChecker) (int, error) {
	open, err := l.store.ListOpen(ctx, l.symbol)
	if err != nil {
		return 0, errors.Wrap(err, "list open")
	}

	closed := 0
	for _, rec := range open {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		status, err := checker.OrderStatus(ctx, l.symbol, rec.SellOrderID)
		if err != nil {
			l.log.Errorf(l.symbol, "Error checking order %s: %v", rec.SellOrderID, err)
			continue
		}
		switch status {
		case models.OrderStatusClosed:
		case models.OrderStatusCancelled:
			l.log.Warnf(l.symbol, "Sell order %s was cancelled on the exchange, row stays open", rec.SellOrderID)
			continue
		default:
			continue
		}

		ok, err := l.store.MarkClosed(ctx, l.symbol, rec.SellOrderID, l.now().UTC())
		if err != nil {
			l.log.Errorf(l.symbol, "Error closing order %s: %v", rec.SellOrderID, err)
			continue
		}
		if ok {
			closed++
			l.log.Infof(l.symbol, "Sell order %s filled at %s", rec.SellOrderID, rec.SellPrice)
		}
	}
	return closed, nil
}

// TotalOpenExposure is the sum of buy_price*amount over open rows.
func (l *Ledger) TotalOpenExposure(ctx context.Context) (decimal.Decimal, error) {
	open, err := l.store.ListOpen(ctx, l.symbol)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "list open")
	}
	return Exposure(open), nil
}

func (l *Ledger) Open(ctx context.Context) ([]models.OrderRecord, error) {
	return l.store.ListOpen(ctx, l.symbol)
}

func (l *Ledger) All(ctx context.Context) ([]models.OrderRecord, error) {
	return l.store.ListAll(ctx, l.symbol)
}

// Exposure sums the committed quote value of the given rows.
func Exposure(recs []models.OrderRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recs {
		if r.Status == models.RecordOpen {
			total = total.Add(r.Exposure())
		}
	}
	return total
}
