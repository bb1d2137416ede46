package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteTick struct {
	Symbol    string          `json:"symbol"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	BidSize   int64           `json:"bid_size"`
	AskSize   int64           `json:"ask_size"`
	Timestamp time.Time       `json:"timestamp"`
}

type TradeTick struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Size      int64           `json:"size"`
	Timestamp time.Time       `json:"timestamp"`
}

type QuoteEvent struct {
	RetryCount int       `json:"retry"`
	Data       QuoteTick `json:"data"`
}

type TradeEvent struct {
	RetryCount int       `json:"retry"`
	Data       TradeTick `json:"data"`
}

type OrderUpdateEvent struct {
	RetryCount int         `json:"retry"`
	Data       OrderUpdate `json:"data"`
}
