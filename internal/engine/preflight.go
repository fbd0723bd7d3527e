package engine

import (
	"gungnir/internal/common"
)

// canProcess checks that an order is worth dispatching at all. Orders that
// fail here are terminally cancelled without touching either ladder.
func (book *Orderbook) canProcess(order *common.Order) bool {
	// Reject invalid quantities.
	if order.InitialVolume <= 0 {
		return false
	}

	switch order.OrderType {
	case common.Market:
		// Market orders cannot execute against an empty side.
		return book.opposite(order.Side).Len() > 0

	case common.FillOrKill:
		return book.hasSufficientVolume(order)

	case common.ImmediateOrCancel:
		// Reject when nothing rests at or better than the limit. An
		// empty opposite side is folded into the same rejection rather
		// than producing a zero-fill pass through the sweep.
		best, ok := book.bestOpposite(order.Side)
		return ok && acceptable(order, best)
	}

	// Limit orders are always valid to process.
	return true
}

// hasSufficientVolume reports whether the opposite side holds at least the
// order's full volume at prices acceptable to its limit. Pure read; walks
// levels best first and stops as soon as the answer is known.
func (book *Orderbook) hasSufficientVolume(order *common.Order) bool {
	var accumulated common.Volume
	book.opposite(order.Side).Scan(func(level *PriceLevel) bool {
		if !acceptable(order, level.Price) {
			return false
		}
		accumulated += level.Volume()
		return accumulated < order.InitialVolume
	})
	return accumulated >= order.InitialVolume
}
