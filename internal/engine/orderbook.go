package engine

import (
	"gungnir/internal/common"
)

// orderLocation is the index overlay entry for one resting order. Levels own
// orders; the index only carries enough to find the level again.
type orderLocation struct {
	price common.Price
	side  common.Side
}

type Orderbook struct {
	// Pointer to the owning engine, used to fire trades as they happen.
	engine *Engine

	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	Bids *PriceLevels
	Asks *PriceLevels

	// Resting order id to its level, for cancel and modify.
	locations map[common.OrderID]orderLocation

	// Terminal orders, append only.
	Completed *CompletedOrders

	// Some book keeping
	buyVolume  common.Volume // Track the bid-side liquidity of the book.
	sellVolume common.Volume // Track the ask-side liquidity of the book.
}

func NewOrderbook(engine *Engine) *Orderbook {
	return &Orderbook{
		engine:    engine,
		Bids:      newBids(),
		Asks:      newAsks(),
		locations: make(map[common.OrderID]orderLocation),
		Completed: &CompletedOrders{},
	}
}

// Submit runs an incoming order to its terminal disposition: filled against
// the opposite side, rested on its own side, or cancelled. Exactly one
// outcome is returned and the book is consistent on return.
func (book *Orderbook) Submit(order common.Order) common.Outcome {
	// Quick eligibility check (cheap).
	if !book.canProcess(&order) {
		book.Completed.Add(order)
		return common.Cancelled
	}

	switch order.OrderType {
	case common.Market:
		return book.handleMarket(order)
	case common.FillOrKill:
		return book.handleFillOrKill(order)
	case common.ImmediateOrCancel:
		return book.handleIOC(order)
	case common.GoodTillCancel:
		return book.handleLimit(order)
	}

	book.Completed.Add(order)
	return common.Cancelled
}

// BestBid returns the highest resting bid price, if any.
func (book *Orderbook) BestBid() (common.Price, bool) {
	level, ok := book.Bids.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (book *Orderbook) BestAsk() (common.Price, bool) {
	level, ok := book.Asks.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// SideVolume reports the total resting volume on one side.
func (book *Orderbook) SideVolume(side common.Side) common.Volume {
	if side == common.Buy {
		return book.buyVolume
	}
	return book.sellVolume
}

// side returns the ladder orders of this side rest on.
func (book *Orderbook) side(side common.Side) *PriceLevels {
	if side == common.Buy {
		return book.Bids
	}
	return book.Asks
}

// opposite returns the ladder an incoming order of this side trades against.
func (book *Orderbook) opposite(side common.Side) *PriceLevels {
	if side == common.Buy {
		return book.Asks
	}
	return book.Bids
}

// acceptable reports whether a resting price is at or better than the
// incoming order's limit.
func acceptable(order *common.Order, price common.Price) bool {
	if order.Side == common.Buy {
		return price <= order.LimitPrice
	}
	return price >= order.LimitPrice
}

func (book *Orderbook) addVolume(side common.Side, volume common.Volume) {
	if side == common.Buy {
		book.buyVolume += volume
	} else {
		book.sellVolume += volume
	}
}

func (book *Orderbook) takeVolume(side common.Side, volume common.Volume) {
	if side == common.Buy {
		book.buyVolume -= volume
	} else {
		book.sellVolume -= volume
	}
}

// sweep is the shared fill loop. It consumes the opposite side best level
// first, oldest order first within a level, until the incoming order is
// filled, the side runs dry, or (for bounded sweeps) the best price stops
// being acceptable. Fully consumed resting orders are unindexed and moved to
// the completed log; emptied levels are dropped.
func (book *Orderbook) sweep(order *common.Order, bounded bool) {
	levels := book.opposite(order.Side)

	for order.RemainingVolume > 0 {
		level, ok := levels.MinMut()
		if !ok || (bounded && !acceptable(order, level.Price)) {
			break
		}

		// Walk the FIFO queue. Only the last order touched can be left
		// partially filled, and only when the incoming order ran out.
		consumed := 0
		for _, resting := range level.Orders {
			if order.RemainingVolume <= 0 {
				break
			}

			matched := min(order.RemainingVolume, resting.RemainingVolume)
			order.RemainingVolume -= matched
			resting.RemainingVolume -= matched
			book.takeVolume(resting.Side, matched)
			book.engine.Trade(order, resting, matched, level.Price)

			if resting.RemainingVolume == 0 {
				delete(book.locations, resting.ID)
				book.Completed.Add(*resting)
				consumed++
			}
		}

		// Slice off the consumed head; drop the level once empty.
		if consumed == len(level.Orders) {
			levels.Delete(level)
		} else if consumed > 0 {
			level.Orders = level.Orders[consumed:]
		}
	}
}

// rest places a limit order at the tail of the queue for its price, creating
// the level if absent, and indexes it.
func (book *Orderbook) rest(order common.Order) {
	levels := book.side(order.Side)

	// The ladder comparator only looks at prices, so a bare level works as
	// the search key.
	level, ok := levels.GetMut(&PriceLevel{Price: order.LimitPrice})
	if ok {
		level.Orders = append(level.Orders, &order)
	} else {
		levels.Set(&PriceLevel{
			Price:  order.LimitPrice,
			Orders: []*common.Order{&order},
		})
	}

	book.locations[order.ID] = orderLocation{price: order.LimitPrice, side: order.Side}
	book.addVolume(order.Side, order.RemainingVolume)
}

// handleLimit fills what crosses at entry, then rests the remainder at the
// limit price.
func (book *Orderbook) handleLimit(order common.Order) common.Outcome {
	best, ok := book.bestOpposite(order.Side)
	if !ok || !acceptable(&order, best) {
		book.rest(order)
		return common.AddedToOrderbook
	}

	book.sweep(&order, true)

	if order.RemainingVolume > 0 {
		book.rest(order)
		return common.PartiallyFilledAndAddedToBook
	}
	book.Completed.Add(order)
	return common.FullyFilled
}

// handleMarket sweeps the opposite side with no price bound. Pre-flight has
// already rejected an empty opposite side, so at least one fill happens.
func (book *Orderbook) handleMarket(order common.Order) common.Outcome {
	book.sweep(&order, false)

	book.Completed.Add(order)
	if order.RemainingVolume == 0 {
		return common.FullyFilled
	}
	return common.PartiallyFilledAndCancelled
}

// handleIOC fills as far as the limit price allows and cancels the residual.
func (book *Orderbook) handleIOC(order common.Order) common.Outcome {
	book.sweep(&order, true)

	book.Completed.Add(order)
	if order.RemainingVolume == 0 {
		return common.FullyFilled
	}
	return common.PartiallyFilledAndCancelled
}

// handleFillOrKill runs the same bounded sweep as IOC. The feasibility check
// in pre-flight already proved enough volume rests at acceptable prices, and
// nothing can interleave between check and fill, so the sweep always
// completes the order.
func (book *Orderbook) handleFillOrKill(order common.Order) common.Outcome {
	book.sweep(&order, true)

	book.Completed.Add(order)
	if order.RemainingVolume == 0 {
		return common.FullyFilled
	}
	return common.PartiallyFilledAndCancelled
}

// bestOpposite returns the best price on the side an order would trade
// against.
func (book *Orderbook) bestOpposite(side common.Side) (common.Price, bool) {
	level, ok := book.opposite(side).Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}
