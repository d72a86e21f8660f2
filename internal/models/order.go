package models

import "github.com/shopspring/decimal"

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

type TimeInForce string

const (
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceGTC TimeInForce = "gtc"
)

// OrderStatus mirrors the exchange order states.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderRequest is a single order submission. Price is zero for market orders.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Amount      decimal.Decimal
	Price       decimal.Decimal
	Type        OrderType
	TimeInForce TimeInForce
	ClientTag   string
}

type PlacedOrder struct {
	ID     string
	Status OrderStatus
}

// Trade is a fill reported by the exchange for one of our orders.
type Trade struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// ExecutionResult is the realized outcome of a market order.
type ExecutionResult struct {
	OrderID string
	Side    Side
	Price   decimal.Decimal
	Filled  decimal.Decimal
}

// Value is the quote amount that changed hands.
func (r ExecutionResult) Value() decimal.Decimal {
	return r.Price.Mul(r.Filled)
}
