package common

import (
	"fmt"
	"time"
)

// Trade accounts for the two parties who matched. The taker is the incoming
// order that triggered the fill, the maker the resting one.
type Trade struct {
	Taker     *Order
	Maker     *Order
	Timestamp time.Time
	MatchVol  Volume
	Price     Price
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`Taker: [
%s]
Maker: [
%s]
Timestamp:      %v
MatchVol:       %f
Price:          %f`,
		t.Taker.String(),
		t.Maker.String(),
		t.Timestamp.Format(time.RFC3339),
		t.MatchVol,
		t.Price,
	)
}
