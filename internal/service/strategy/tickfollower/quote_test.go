package tickfollower

import (
	"testing"
	"time"

	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteTick(bid, ask string, bidSize, askSize int64) entity.QuoteTick {
	return entity.QuoteTick{
		Symbol:    "SNAP",
		BidPrice:  decimal.RequireFromString(bid),
		AskPrice:  decimal.RequireFromString(ask),
		BidSize:   bidSize,
		AskSize:   askSize,
		Timestamp: time.Date(2026, 1, 6, 15, 0, 0, 0, time.UTC),
	}
}

func TestQuoteUpdate_AdoptsPennyLevel(t *testing.T) {
	quote := NewQuote("SNAP")
	require.True(t, quote.Traded)
	require.Equal(t, 1, quote.LevelCount)

	quote.Update(quoteTick("10.00", "10.01", 300, 200))

	assert.True(t, quote.Bid.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, quote.Ask.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, int64(300), quote.BidSize)
	assert.Equal(t, int64(200), quote.AskSize)

	// The first observed level has no penny-wide predecessor, so the traded
	// latch stays armed from construction.
	assert.True(t, quote.Traded)
	assert.Equal(t, 1, quote.LevelCount)
}

func TestQuoteUpdate_OneSidedMoveIsNotALevelChange(t *testing.T) {
	quote := NewQuote("SNAP")
	quote.Update(quoteTick("10.00", "10.01", 300, 200))

	// Bid steps up but the ask stays, even though the result would be a
	// locked market this is not a tracked level change.
	quote.Update(quoteTick("10.01", "10.01", 500, 200))

	assert.True(t, quote.Bid.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, quote.Ask.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, 1, quote.LevelCount)
	// Sizes still refresh on every tick.
	assert.Equal(t, int64(500), quote.BidSize)
}

func TestQuoteUpdate_WideSpreadIgnored(t *testing.T) {
	quote := NewQuote("SNAP")
	quote.Update(quoteTick("10.00", "10.01", 300, 200))

	quote.Update(quoteTick("10.01", "10.03", 100, 100))

	assert.True(t, quote.Bid.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, quote.Ask.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, 1, quote.LevelCount)
}

func TestQuoteUpdate_PennyToPennyResetsTradedLatch(t *testing.T) {
	quote := NewQuote("SNAP")
	quote.Update(quoteTick("10.00", "10.01", 300, 200))
	quote.Traded = true

	quote.Update(quoteTick("10.01", "10.02", 400, 150))

	assert.False(t, quote.Traded)
	assert.Equal(t, 2, quote.LevelCount)
	assert.True(t, quote.PrevBid.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, quote.PrevAsk.Equal(decimal.RequireFromString("10.01")))
	assert.True(t, quote.Spread.Equal(decimal.RequireFromString("0.01")))
}

func TestQuoteUpdate_WidePrevSpreadKeepsTradedLatch(t *testing.T) {
	quote := NewQuote("SNAP")

	// Seed a two-cent level by hand, as if the market had been wider before.
	quote.Bid = decimal.RequireFromString("10.00")
	quote.Ask = decimal.RequireFromString("10.02")
	quote.Traded = true

	quote.Update(quoteTick("10.01", "10.02", 300, 200))
	// Ask unchanged, not a level change at all.
	assert.True(t, quote.Traded)

	quote.Update(quoteTick("10.02", "10.03", 300, 200))
	// Both sides moved onto a penny spread, but the previous level was two
	// cents wide so the latch must stay set.
	assert.True(t, quote.Traded)
	assert.True(t, quote.PrevSpread.Equal(decimal.RequireFromString("0.02")))
	assert.Equal(t, 1, quote.LevelCount)
}

func TestQuoteUpdate_SpreadRoundingTolerance(t *testing.T) {
	quote := NewQuote("SNAP")

	// Feed prices whose float provenance leaves a spread of 0.010000001; the
	// two-decimal rounding must still classify it as a penny.
	tick := entity.QuoteTick{
		Symbol:    "SNAP",
		BidPrice:  decimal.NewFromFloat(10.00),
		AskPrice:  decimal.NewFromFloat(10.010000001),
		BidSize:   100,
		AskSize:   100,
		Timestamp: time.Now(),
	}
	quote.Update(tick)

	assert.True(t, quote.Bid.Equal(decimal.NewFromFloat(10.00)))
	assert.True(t, quote.Spread.Equal(decimal.RequireFromString("0.01")))
}
