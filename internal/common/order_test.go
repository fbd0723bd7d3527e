package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The outcome ordinals are a wire and conformance contract; pin them.
func TestOutcomeOrdinals(t *testing.T) {
	assert.EqualValues(t, 0, FullyFilled)
	assert.EqualValues(t, 1, PartiallyFilledAndCancelled)
	assert.EqualValues(t, 2, PartiallyFilledAndAddedToBook)
	assert.EqualValues(t, 3, Cancelled)
	assert.EqualValues(t, 4, AddedToOrderbook)
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestNewOrder(t *testing.T) {
	order := NewOrder(ImmediateOrCancel, 9, 101.5, Sell, 25)
	assert.Equal(t, OrderID(9), order.ID)
	assert.Equal(t, Volume(25), order.InitialVolume)
	assert.Equal(t, Volume(25), order.RemainingVolume)
	assert.Equal(t, Price(101.5), order.LimitPrice)
}
