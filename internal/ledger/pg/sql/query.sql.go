package sql

import (
	"context"
	"time"
)

const insert = `-- name: Insert :one
INSERT INTO ledger_orders (symbol, buy_price, amount, sell_price, sell_order_id, status, created_at, updated_at)
VALUES ($1, $2::text::numeric, $3::text::numeric, $4::text::numeric, $5, 'open', $6, $6)
RETURNING id
`

type InsertParams struct {
	Symbol      string
	BuyPrice    string
	Amount      string
	SellPrice   string
	SellOrderID string
	CreatedAt   time.Time
}

func (q *Queries) Insert(ctx context.Context, db DBTX, arg *InsertParams) (int64, error) {
	row := db.QueryRow(ctx, insert,
		arg.Symbol,
		arg.BuyPrice,
		arg.Amount,
		arg.SellPrice,
		arg.SellOrderID,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const markClosed = `-- name: MarkClosed :execrows
UPDATE ledger_orders
SET status = 'closed', updated_at = $3
WHERE symbol = $1 AND sell_order_id = $2 AND status = 'open'
`

type MarkClosedParams struct {
	Symbol      string
	SellOrderID string
	UpdatedAt   time.Time
}

func (q *Queries) MarkClosed(ctx context.Context, db DBTX, arg *MarkClosedParams) (int64, error) {
	result, err := db.Exec(ctx, markClosed, arg.Symbol, arg.SellOrderID, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listOpen = `-- name: ListOpen :many
SELECT id, symbol, buy_price::text AS buy_price, amount::text AS amount, sell_price::text AS sell_price,
       sell_order_id, status, created_at, updated_at
FROM ledger_orders
WHERE symbol = $1 AND status = 'open'
ORDER BY id
`

type LedgerOrderRow struct {
	ID          int64
	Symbol      string
	BuyPrice    string
	Amount      string
	SellPrice   string
	SellOrderID string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) ListOpen(ctx context.Context, db DBTX, symbol string) ([]LedgerOrderRow, error) {
	return q.list(ctx, db, listOpen, symbol)
}

const listAll = `-- name: ListAll :many
SELECT id, symbol, buy_price::text AS buy_price, amount::text AS amount, sell_price::text AS sell_price,
       sell_order_id, status, created_at, updated_at
FROM ledger_orders
WHERE symbol = $1
ORDER BY id
`

func (q *Queries) ListAll(ctx context.Context, db DBTX, symbol string) ([]LedgerOrderRow, error) {
	return q.list(ctx, db, listAll, symbol)
}

func (q *Queries) list(ctx context.Context, db DBTX, query, symbol string) ([]LedgerOrderRow, error) {
	rows, err := db.Query(ctx, query, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerOrderRow
	for rows.Next() {
		var i LedgerOrderRow
		if err := rows.Scan(
			&i.ID,
			&i.Symbol,
			&i.BuyPrice,
			&i.Amount,
			&i.SellPrice,
			&i.SellOrderID,
			&i.Status,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
