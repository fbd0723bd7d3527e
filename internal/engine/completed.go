package engine

import (
	"gungnir/internal/common"
)

// CompletedOrders is the append-only sink for finalized orders. An order is
// added exactly when it stops being referenced by the ladders and the index:
// fully filled, terminally cancelled, or rejected pre-trade.
type CompletedOrders struct {
	orders []common.Order
}

func (completed *CompletedOrders) Add(order common.Order) {
	completed.orders = append(completed.orders, order)
}

// Contains reports whether an order with this id was ever finalized.
func (completed *CompletedOrders) Contains(id common.OrderID) bool {
	for _, order := range completed.orders {
		if order.ID == id {
			return true
		}
	}
	return false
}

// All returns the finalized orders in completion order. The slice is the
// log's backing store; callers must not mutate it.
func (completed *CompletedOrders) All() []common.Order {
	return completed.orders
}

func (completed *CompletedOrders) Len() int {
	return len(completed.orders)
}
