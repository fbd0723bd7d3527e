package engine

import (
	"slices"

	"gungnir/internal/common"
)

// Cancel removes a resting order from the book and the index and finalizes
// it with its remaining volume left as-is. Returns false when the id is not
// resting; the book is untouched in that case.
func (book *Orderbook) Cancel(id common.OrderID) bool {
	location, ok := book.locations[id]
	if !ok {
		return false
	}

	levels := book.side(location.side)
	level, ok := levels.GetMut(&PriceLevel{Price: location.price})
	if !ok {
		return false
	}
	idx := slices.IndexFunc(level.Orders, func(order *common.Order) bool {
		return order.ID == id
	})
	if idx < 0 {
		return false
	}

	order := level.Orders[idx]
	level.Orders = slices.Delete(level.Orders, idx, idx+1)
	if len(level.Orders) == 0 {
		levels.Delete(level)
	}

	delete(book.locations, id)
	book.takeVolume(order.Side, order.RemainingVolume)
	book.Completed.Add(*order)
	return true
}

// Modify adjusts a resting order's volume and price in place.
//
// A non-positive volume is a cancel. A volume at or below the current
// remainder shrinks the order without forfeiting its place in the queue. A
// volume increase is ignored, the order cannot jump the queue by growing;
// any price move in the same call is still applied and the call still
// returns true. A price move re-queues the order at the tail of its new
// level, forfeiting time priority there.
func (book *Orderbook) Modify(id common.OrderID, newPrice common.Price, newVolume common.Volume) bool {
	if newVolume <= 0 {
		return book.Cancel(id)
	}

	location, ok := book.locations[id]
	if !ok {
		return false
	}

	levels := book.side(location.side)
	level, ok := levels.GetMut(&PriceLevel{Price: location.price})
	if !ok {
		return false
	}
	idx := slices.IndexFunc(level.Orders, func(order *common.Order) bool {
		return order.ID == id
	})
	if idx < 0 {
		return false
	}
	order := level.Orders[idx]

	if newVolume <= order.RemainingVolume {
		book.takeVolume(order.Side, order.RemainingVolume-newVolume)
		order.RemainingVolume = newVolume
	}

	if newPrice != location.price {
		level.Orders = slices.Delete(level.Orders, idx, idx+1)
		if len(level.Orders) == 0 {
			levels.Delete(level)
		}

		order.LimitPrice = newPrice
		target, ok := levels.GetMut(&PriceLevel{Price: newPrice})
		if ok {
			target.Orders = append(target.Orders, order)
		} else {
			levels.Set(&PriceLevel{
				Price:  newPrice,
				Orders: []*common.Order{order},
			})
		}
		book.locations[id] = orderLocation{price: newPrice, side: location.side}
	}

	return true
}
