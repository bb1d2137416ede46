package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

type BrokerName string

const (
	BrokerAlpaca BrokerName = "alpaca"
)

type OrderSide string
type TimeInForce string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"

	TimeInForceDay TimeInForce = "day"
)

// Order lifecycle events delivered on the shared order-update stream.
const (
	OrderEventFill        = "fill"
	OrderEventPartialFill = "partial_fill"
	OrderEventCanceled    = "canceled"
	OrderEventRejected    = "rejected"
)

type OrderRequest struct {
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Qty           int64           `json:"qty"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	TimeInForce   TimeInForce     `json:"time_in_force"`
}

// Order is the broker's view of an order. The order's lifecycle is owned by
// the broker; this side only tracks fill progress per order id.
type Order struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Qty           int64           `json:"qty,string"`
	FilledQty     int64           `json:"filled_qty,string"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	Status        string          `json:"status"`
}

type BrokerPosition struct {
	Symbol string `json:"symbol"`
	Qty    int64  `json:"qty,string"`
}

type OrderUpdate struct {
	Event string `json:"event"`
	Order Order  `json:"order"`
}

type Broker interface {
	ListPositions(ctx context.Context) ([]BrokerPosition, error)
	ListOpenOrders(ctx context.Context) ([]Order, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	SubscribeMarketData(ctx context.Context, symbols []string) error
}
