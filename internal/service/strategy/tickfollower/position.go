package tickfollower

import (
	"errors"
	"fmt"

	"github.com/krobus00/tick-follower/internal/entity"
)

// ErrUnknownOrder is returned when a ledger operation references an order id
// the ledger never registered. The order-update stream is expected to only
// carry orders this process submitted or synced at startup, so hitting this
// points at a reconciliation bug and is surfaced instead of swallowed.
var ErrUnknownOrder = errors.New("order is not tracked by the ledger")

// Position is the per-instrument share ledger: confirmed holdings since the
// start of the session plus shares still committed to open orders. Orders may
// fill partially, so the cumulative filled amount per open order is tracked
// until the order reaches a terminal state.
type Position struct {
	Symbol            string
	TotalShares       int64
	PendingBuyShares  int64
	PendingSellShares int64

	filled map[string]int64
}

func NewPosition(symbol string) *Position {
	return &Position{
		Symbol: symbol,
		filled: make(map[string]int64),
	}
}

// Sync initializes the ledger from the broker's position and open-order
// snapshot. Called once at startup; afterwards the ledger is maintained
// purely incrementally from order updates.
func (p *Position) Sync(position *entity.BrokerPosition, openOrders []entity.Order) {
	if position == nil {
		p.TotalShares = 0
	} else {
		p.TotalShares = position.Qty
	}

	p.PendingBuyShares = 0
	p.PendingSellShares = 0
	for _, order := range openOrders {
		remaining := order.Qty - order.FilledQty
		if order.Side == entity.OrderSideBuy {
			p.PendingBuyShares += remaining
		} else {
			p.PendingSellShares += remaining
		}
		p.filled[order.ID] = order.FilledQty
	}
}

// RegisterPendingOrder inserts a zero-filled entry for a freshly accepted
// order.
func (p *Position) RegisterPendingOrder(orderID string) {
	p.filled[orderID] = 0
}

func (p *Position) AddPending(side entity.OrderSide, qty int64) {
	if side == entity.OrderSideBuy {
		p.PendingBuyShares += qty
	} else {
		p.PendingSellShares += qty
	}
}

func (p *Position) AddTotalShares(qty int64) {
	p.TotalShares += qty
}

// FilledAmount reports the cumulative filled quantity recorded for a pending
// order.
func (p *Position) FilledAmount(orderID string) (int64, bool) {
	amount, ok := p.filled[orderID]
	return amount, ok
}

// ApplyFill moves the ledger forward to a new cumulative filled amount for a
// pending order. Non-increasing amounts are stale or duplicate notifications
// and are ignored.
func (p *Position) ApplyFill(orderID string, newAmount int64, side entity.OrderSide) error {
	oldAmount, ok := p.filled[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if newAmount <= oldAmount {
		return nil
	}

	delta := newAmount - oldAmount
	if side == entity.OrderSideBuy {
		p.PendingBuyShares -= delta
		p.TotalShares += delta
	} else {
		p.PendingSellShares -= delta
		p.TotalShares -= delta
	}
	p.filled[orderID] = newAmount

	return nil
}

// RemovePendingOrder releases the pending shares an order was still holding
// and drops its fill-progress entry. unit is the originally requested order
// size, not the last seen fill. Used for terminal fill, cancel and reject
// alike.
func (p *Position) RemovePendingOrder(orderID string, side entity.OrderSide, unit int64) error {
	oldAmount, ok := p.filled[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	if side == entity.OrderSideBuy {
		p.PendingBuyShares -= unit - oldAmount
	} else {
		p.PendingSellShares -= unit - oldAmount
	}
	delete(p.filled, orderID)

	return nil
}

// PendingOrderCount reports how many orders still hold a fill-progress entry.
func (p *Position) PendingOrderCount() int {
	return len(p.filled)
}
