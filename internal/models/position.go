package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordStatus string

const (
	RecordOpen   RecordStatus = "open"
	RecordClosed RecordStatus = "closed"
)

// OrderRecord is one grid buy and its paired take-profit sell.
type OrderRecord struct {
	ID          int64
	Symbol      string
	BuyPrice    decimal.Decimal
	Amount      decimal.Decimal
	SellPrice   decimal.Decimal
	SellOrderID string
	Status      RecordStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exposure is the quote value committed to this record.
func (r OrderRecord) Exposure() decimal.Decimal {
	return r.BuyPrice.Mul(r.Amount)
}
