package engine

import (
	"testing"

	"gungnir/internal/common"

	"github.com/stretchr/testify/assert"
)

// --- Cancel -----------------------------------------------------------------

func TestCancel_RestingOrder(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100)

	assert.True(t, book.Cancel(1))

	assert.Empty(t, book.Bids.Items())
	assert.Empty(t, book.locations)
	assert.True(t, book.Completed.Contains(1))
	assert.Equal(t, common.Volume(0), book.SideVolume(common.Buy))
	checkInvariants(t, book, 1)
}

func TestCancel_KeepsLevelForRemainingOrders(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100, 50, 25)

	// Cancel out of the middle; the neighbours keep their queue order.
	assert.True(t, book.Cancel(2))

	expectedBids := []*PriceLevel{
		buildExpectedLevel(100.0, common.Buy, resting(1, 100), resting(3, 25)),
	}
	assert.Equal(t, expectedBids, book.Bids.Items())
	checkInvariants(t, book, 1, 2, 3)
}

func TestCancel_UnknownID(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100)

	assert.False(t, book.Cancel(42))
	expectedBids := []*PriceLevel{
		buildExpectedLevel(100.0, common.Buy, resting(1, 100)),
	}
	assert.Equal(t, expectedBids, book.Bids.Items())
	assert.False(t, book.Completed.Contains(42))
}

func TestCancel_Idempotence(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100)

	assert.True(t, book.Cancel(1))
	assert.False(t, book.Cancel(1))

	entries := 0
	for _, order := range book.Completed.All() {
		if order.ID == 1 {
			entries++
		}
	}
	assert.Equal(t, 1, entries, "cancel must finalize an order exactly once")
}

func TestCancel_NeverRestedOrder(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Sell, 100.0, 1, 50)
	assert.Equal(t, common.FullyFilled,
		submitOrder(book, common.ImmediateOrCancel, 2, 100.0, common.Buy, 50))

	// Terminal orders are not cancellable even though their ids are known.
	assert.False(t, book.Cancel(2))
}

// --- Modify -----------------------------------------------------------------

func TestModify_PriceAndVolume(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100)

	assert.True(t, book.Modify(1, 95.0, 80))

	expectedBids := []*PriceLevel{{
		Price: 95.0,
		Orders: []*common.Order{{
			ID:              1,
			OrderType:       common.GoodTillCancel,
			Side:            common.Buy,
			LimitPrice:      95.0,
			InitialVolume:   100,
			RemainingVolume: 80,
		}},
	}}
	assert.Equal(t, expectedBids, book.Bids.Items())
	assert.Equal(t, orderLocation{price: 95.0, side: common.Buy}, book.locations[1])
	assert.Equal(t, common.Volume(80), book.SideVolume(common.Buy))
	checkInvariants(t, book, 1)

	// And the relocated order is still cancellable.
	assert.True(t, book.Cancel(1))
	assert.Empty(t, book.Bids.Items())
	checkInvariants(t, book, 1)
}

func TestModify_VolumeDecreaseKeepsQueuePosition(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100, 50)

	assert.True(t, book.Modify(1, 100.0, 40))

	expectedBids := []*PriceLevel{
		buildExpectedLevel(100.0, common.Buy, restingOrder{1, 100, 40}, resting(2, 50)),
	}
	assert.Equal(t, expectedBids, book.Bids.Items())
	checkInvariants(t, book, 1, 2)
}

func TestModify_VolumeIncreaseIgnored(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Buy, 100.0, 1, 100, 50)

	// The increase is dropped but the call still succeeds; the price move
	// part of the request still happens.
	assert.True(t, book.Modify(1, 100.0, 200))
	expectedBids := []*PriceLevel{
		buildExpectedLevel(100.0, common.Buy, resting(1, 100), resting(2, 50)),
	}
	assert.Equal(t, expectedBids, book.Bids.Items())

	assert.True(t, book.Modify(1, 99.0, 200))
	expectedBids = []*PriceLevel{
		buildExpectedLevel(100.0, common.Buy, resting(2, 50)),
		buildExpectedLevel(99.0, common.Buy, resting(1, 100)),
	}
	assert.Equal(t, expectedBids, book.Bids.Items())
	checkInvariants(t, book, 1, 2)
}

func TestModify_PriceMoveForfeitsTimePriority(t *testing.T) {
	book := newTestBook()
	placeLevel(t, book, common.Sell, 100.0, 1, 10)
	placeLevel(t, book, common.Sell, 101.0, 2, 20)

	// Moving onto an existing level queues behind its residents.
	assert.True(t, book.Modify(2, 100.0, 20))

	expectedAsks := []*PriceLevel{
		buildExpectedLevel(100.0, common.Sell, resting(1, 10), resting(2, 20)),
	}
	assert.Equal(t, expectedAsks, book.Asks.Items())
	checkInvariants(t, book, 1, 2)
}

func TestModify_ToZeroEqualsCancel(t *testing.T) {
	modified := newTestBook()
	placeLevel(t, modified, common.Buy, 100.0, 1, 100)
	cancelled := newTestBook()
	placeLevel(t, cancelled, common.Buy, 100.0, 1, 100)

	assert.True(t, modified.Modify(1, 95.0, 0))
	assert.True(t, cancelled.Cancel(1))

	assert.Equal(t, cancelled.Bids.Items(), modified.Bids.Items())
	assert.Equal(t, cancelled.Completed.All(), modified.Completed.All())
	assert.False(t, modified.Modify(1, 95.0, 10), "finalized order must not be modifiable")
}

func TestModify_UnknownID(t *testing.T) {
	book := newTestBook()
	assert.False(t, book.Modify(7, 100.0, 10))
	assert.False(t, book.Completed.Contains(7))
}
