package tickfollower

import (
	"testing"

	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionSync_EmptySnapshot(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.Sync(nil, nil)

	assert.Equal(t, int64(0), ledger.TotalShares)
	assert.Equal(t, int64(0), ledger.PendingBuyShares)
	assert.Equal(t, int64(0), ledger.PendingSellShares)
	assert.Equal(t, 0, ledger.PendingOrderCount())
}

func TestPositionSync_OpenOrdersCountRemainingShares(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.Sync(
		&entity.BrokerPosition{Symbol: "SNAP", Qty: 200},
		[]entity.Order{
			{ID: "o-1", Side: entity.OrderSideBuy, Qty: 100, FilledQty: 40},
			{ID: "o-2", Side: entity.OrderSideSell, Qty: 100, FilledQty: 0},
		},
	)

	assert.Equal(t, int64(200), ledger.TotalShares)
	assert.Equal(t, int64(60), ledger.PendingBuyShares)
	assert.Equal(t, int64(100), ledger.PendingSellShares)
	assert.Equal(t, 2, ledger.PendingOrderCount())

	amount, ok := ledger.FilledAmount("o-1")
	require.True(t, ok)
	assert.Equal(t, int64(40), amount)
}

func TestPositionApplyFill_BuyProgress(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.RegisterPendingOrder("o-1")
	ledger.AddPending(entity.OrderSideBuy, 100)

	require.NoError(t, ledger.ApplyFill("o-1", 40, entity.OrderSideBuy))
	assert.Equal(t, int64(40), ledger.TotalShares)
	assert.Equal(t, int64(60), ledger.PendingBuyShares)

	require.NoError(t, ledger.ApplyFill("o-1", 100, entity.OrderSideBuy))
	assert.Equal(t, int64(100), ledger.TotalShares)
	assert.Equal(t, int64(0), ledger.PendingBuyShares)
}

func TestPositionApplyFill_SellProgress(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.TotalShares = 100
	ledger.RegisterPendingOrder("o-1")
	ledger.AddPending(entity.OrderSideSell, 100)

	require.NoError(t, ledger.ApplyFill("o-1", 30, entity.OrderSideSell))
	assert.Equal(t, int64(70), ledger.TotalShares)
	assert.Equal(t, int64(70), ledger.PendingSellShares)
}

func TestPositionApplyFill_StaleAmountIgnored(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.RegisterPendingOrder("o-1")
	ledger.AddPending(entity.OrderSideBuy, 100)

	require.NoError(t, ledger.ApplyFill("o-1", 40, entity.OrderSideBuy))

	// Re-delivered or out-of-order notification.
	require.NoError(t, ledger.ApplyFill("o-1", 40, entity.OrderSideBuy))
	require.NoError(t, ledger.ApplyFill("o-1", 10, entity.OrderSideBuy))

	assert.Equal(t, int64(40), ledger.TotalShares)
	assert.Equal(t, int64(60), ledger.PendingBuyShares)
}

func TestPositionApplyFill_UnknownOrder(t *testing.T) {
	ledger := NewPosition("SNAP")

	err := ledger.ApplyFill("ghost", 40, entity.OrderSideBuy)
	require.ErrorIs(t, err, ErrUnknownOrder)
}

func TestPositionRemovePendingOrder_ReleasesRemainder(t *testing.T) {
	ledger := NewPosition("SNAP")
	ledger.RegisterPendingOrder("o-1")
	ledger.AddPending(entity.OrderSideBuy, 100)

	require.NoError(t, ledger.ApplyFill("o-1", 40, entity.OrderSideBuy))
	require.NoError(t, ledger.RemovePendingOrder("o-1", entity.OrderSideBuy, 100))

	assert.Equal(t, int64(40), ledger.TotalShares)
	assert.Equal(t, int64(0), ledger.PendingBuyShares)
	assert.Equal(t, 0, ledger.PendingOrderCount())

	_, ok := ledger.FilledAmount("o-1")
	assert.False(t, ok)
}

func TestPositionRemovePendingOrder_UnknownOrder(t *testing.T) {
	ledger := NewPosition("SNAP")

	err := ledger.RemovePendingOrder("ghost", entity.OrderSideSell, 100)
	require.ErrorIs(t, err, ErrUnknownOrder)
}
