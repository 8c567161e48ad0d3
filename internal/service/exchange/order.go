package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// TimeInForce follows the exchange's wire values: gtc for limit orders,
// ioc for market orders.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceIOC TimeInForce = "ioc"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsClosed() bool {
	return s == OrderStatusClosed
}

// Order mirrors the exchange's spot order object. Price is empty on market
// orders at creation time and carries the fill price once closed.
type Order struct {
	ID           string
	CurrencyPair string
	Side         OrderSide
	Type         OrderType
	TimeInForce  TimeInForce
	Amount       decimal.Decimal
	Price        decimal.Decimal
	Status       OrderStatus
	CreatedAt    time.Time
}
