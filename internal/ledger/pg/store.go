package pg

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"spot_bot/internal/ledger"
	"spot_bot/internal/ledger/pg/sql"
	"spot_bot/internal/models"
	"spot_bot/pkg/db"
)

//go:embed sql/schema.sql
var schema string

const uniqueViolation = "23505"

// Store keeps ledger rows in the ledger_orders table.
type Store struct {
	db  db.TxManager
	sql *sql.Queries
}

func New(tx db.TxManager) *Store {
	return &Store{
		db:  tx,
		sql: sql.New(),
	}
}

// Migrate creates the table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Conn().Exec(ctx, schema)
	return errors.Wrap(err, "migrate ledger_orders")
}

func (s *Store) Insert(ctx context.Context, rec models.OrderRecord) (out models.OrderRecord, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Insert")
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		id, err := s.sql.Insert(ctxTx, tx, &sql.InsertParams{
			Symbol:      rec.Symbol,
			BuyPrice:    rec.BuyPrice.String(),
			Amount:      rec.Amount.String(),
			SellPrice:   rec.SellPrice.String(),
			SellOrderID: rec.SellOrderID,
			CreatedAt:   rec.CreatedAt,
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return errors.Wrap(ledger.ErrDuplicateOrder, pgErr.Message)
			}
			return err
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return models.OrderRecord{}, err
	}
	rec.Status = models.RecordOpen
	return rec, nil
}

func (s *Store) MarkClosed(ctx context.Context, symbol, sellOrderID string, at time.Time) (bool, error) {
	n, err := s.sql.MarkClosed(ctx, s.db.Conn(), &sql.MarkClosedParams{
		Symbol:      symbol,
		SellOrderID: sellOrderID,
		UpdatedAt:   at,
	})
	if err != nil {
		return false, errors.Wrap(err, "pg.MarkClosed")
	}
	return n > 0, nil
}

func (s *Store) ListOpen(ctx context.Context, symbol string) ([]models.OrderRecord, error) {
	rows, err := s.sql.ListOpen(ctx, s.db.Conn(), symbol)
	if err != nil {
		return nil, errors.Wrap(err, "pg.ListOpen")
	}
	return toRecords(rows)
}

func (s *Store) ListAll(ctx context.Context, symbol string) ([]models.OrderRecord, error) {
	rows, err := s.sql.ListAll(ctx, s.db.Conn(), symbol)
	if err != nil {
		return nil, errors.Wrap(err, "pg.ListAll")
	}
	return toRecords(rows)
}

func toRecords(rows []sql.LedgerOrderRow) ([]models.OrderRecord, error) {
	out := make([]models.OrderRecord, 0, len(rows))
	for _, r := range rows {
		rec := models.OrderRecord{
			ID:          r.ID,
			Symbol:      r.Symbol,
			SellOrderID: r.SellOrderID,
			Status:      models.RecordStatus(r.Status),
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		}
		var err error
		if rec.BuyPrice, err = decimal.NewFromString(r.BuyPrice); err != nil {
			return nil, errors.Wrapf(err, "row %d buy_price", r.ID)
		}
		if rec.Amount, err = decimal.NewFromString(r.Amount); err != nil {
			return nil, errors.Wrapf(err, "row %d amount", r.ID)
		}
		if rec.SellPrice, err = decimal.NewFromString(r.SellPrice); err != nil {
			return nil, errors.Wrapf(err, "row %d sell_price", r.ID)
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ ledger.Store = (*Store)(nil)
