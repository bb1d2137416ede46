package entity

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderJournal is the persisted record of every order the strategy submitted,
// kept up to date from the broker's order-update stream.
type OrderJournal struct {
	ID            string          `db:"id" json:"id"`
	RequestID     string          `db:"request_id" json:"request_id"`
	Broker        string          `db:"broker" json:"broker"`
	Symbol        string          `db:"symbol" json:"symbol"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ClientOrderID sql.NullString  `db:"client_order_id" json:"client_order_id"`
	Side          OrderSide       `db:"side" json:"side"`
	Qty           int64           `db:"qty" json:"qty"`
	LimitPrice    decimal.Decimal `db:"limit_price" json:"limit_price"`
	FilledQty     int64           `db:"filled_qty" json:"filled_qty"`
	Status        string          `db:"status" json:"status"`
	LevelCount    int             `db:"level_count" json:"level_count"`
	ErrorMessage  sql.NullString  `db:"error_message" json:"error_message"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submitted_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

func (o OrderJournal) TableName() string {
	return "order_journals"
}
