package tickfollower

import (
	"time"

	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// pennySpread is the only spread the strategy treats as tradable signal.
// Larger moves could indicate some newsworthy event for the stock, which this
// strategy is not tuned to trade.
var pennySpread = decimal.New(1, -2)

// Quote tracks the bid/ask spread of one instrument. When a level change
// happens, a move of exactly one penny, the strategy may attempt one trade.
// Whether or not that trade fills, no further trade is submitted until the
// next level change.
type Quote struct {
	Symbol     string
	PrevBid    decimal.Decimal
	PrevAsk    decimal.Decimal
	PrevSpread decimal.Decimal
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Spread     decimal.Decimal
	BidSize    int64
	AskSize    int64
	Traded     bool
	LevelCount int
	Time       time.Time
}

func NewQuote(symbol string) *Quote {
	return &Quote{
		Symbol:     symbol,
		Traded:     true,
		LevelCount: 1,
	}
}

func (q *Quote) reset() {
	q.Traded = false
	q.LevelCount++
}

// Update ingests one quote tick. Sizes are always overwritten; bid/ask are
// only adopted on a level change: both sides must move and the new market
// must be exactly one penny wide.
func (q *Quote) Update(tick entity.QuoteTick) {
	q.BidSize = tick.BidSize
	q.AskSize = tick.AskSize

	if q.Bid.Equal(tick.BidPrice) || q.Ask.Equal(tick.AskPrice) {
		return
	}
	if !tick.AskPrice.Sub(tick.BidPrice).Round(2).Equal(pennySpread) {
		return
	}

	q.PrevBid = q.Bid
	q.PrevAsk = q.Ask
	q.Bid = tick.BidPrice
	q.Ask = tick.AskPrice
	q.Time = tick.Timestamp
	q.PrevSpread = q.PrevAsk.Sub(q.PrevBid).Round(3)
	q.Spread = q.Ask.Sub(q.Bid).Round(3)

	logrus.WithFields(logrus.Fields{
		"symbol":      q.Symbol,
		"prev_bid":    q.PrevBid,
		"prev_ask":    q.PrevAsk,
		"prev_spread": q.PrevSpread,
		"bid":         q.Bid,
		"ask":         q.Ask,
		"spread":      q.Spread,
	}).Info("level change")

	// Only a move from one penny-wide level to another arms the strategy.
	// The first observed penny spread has no known prior level and must not
	// count as a reset.
	if q.PrevSpread.Equal(pennySpread) {
		q.reset()
	}
}
