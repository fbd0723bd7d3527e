package engine

import (
	"gungnir/internal/common"

	"github.com/tidwall/btree"
)

// PriceLevel holds the orders resting at one price, oldest first as they
// will be push-back'd. A level never exists empty in a book side.
type PriceLevel struct {
	Price  common.Price
	Orders []*common.Order
}

// Volume sums the unfilled volume resting at this level.
func (level *PriceLevel) Volume() common.Volume {
	var total common.Volume
	for _, order := range level.Orders {
		total += order.RemainingVolume
	}
	return total
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// newBids builds the bid ladder, sorted greatest first.
func newBids() *PriceLevels {
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price
	})
}

// newAsks builds the ask ladder, sorted least first.
func newAsks() *PriceLevels {
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price
	})
}
