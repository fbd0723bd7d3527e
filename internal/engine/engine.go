package engine

import (
	"time"

	"gungnir/internal/common"

	"github.com/rs/zerolog/log"
)

// Reporter receives execution reports for both parties of a match.
type Reporter interface {
	ReportTrade(trade common.Trade, err error) error
}

// Engine owns the single-instrument book and everything that happens around
// a match: trade logging and execution reporting. All methods must be called
// from one goroutine; embedders wanting concurrent access serialize at their
// boundary.
type Engine struct {
	Book     *Orderbook
	reporter Reporter
}

func New(reporter Reporter) *Engine {
	engine := &Engine{reporter: reporter}
	engine.Book = NewOrderbook(engine)
	return engine
}

// SetReporter wires the reporter after construction. The gateway and the
// engine reference each other, so one of them has to be attached late.
func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

func (engine *Engine) Submit(order common.Order) common.Outcome {
	outcome := engine.Book.Submit(order)
	log.Debug().
		Uint64("id", uint64(order.ID)).
		Stringer("type", order.OrderType).
		Stringer("side", order.Side).
		Float64("price", float64(order.LimitPrice)).
		Float64("volume", float64(order.InitialVolume)).
		Stringer("outcome", outcome).
		Msg("order submitted")
	return outcome
}

func (engine *Engine) Cancel(id common.OrderID) bool {
	ok := engine.Book.Cancel(id)
	log.Debug().Uint64("id", uint64(id)).Bool("cancelled", ok).Msg("cancel requested")
	return ok
}

func (engine *Engine) Modify(id common.OrderID, newPrice common.Price, newVolume common.Volume) bool {
	ok := engine.Book.Modify(id, newPrice, newVolume)
	log.Debug().
		Uint64("id", uint64(id)).
		Float64("newPrice", float64(newPrice)).
		Float64("newVolume", float64(newVolume)).
		Bool("modified", ok).
		Msg("modify requested")
	return ok
}

// Trade fires an execution report to both counterparties and logs the match.
func (engine *Engine) Trade(taker, maker *common.Order, volume common.Volume, price common.Price) {
	trade := common.Trade{
		Taker:     taker,
		Maker:     maker,
		Timestamp: time.Now(),
		MatchVol:  volume,
		Price:     price,
	}

	log.Debug().
		Uint64("taker", uint64(taker.ID)).
		Uint64("maker", uint64(maker.ID)).
		Float64("price", float64(price)).
		Float64("volume", float64(volume)).
		Msg("trade")

	if engine.reporter == nil {
		return
	}
	if err := engine.reporter.ReportTrade(trade, nil); err != nil {
		log.Error().Err(err).Msg("unable to report trade")
	}
}

// LogBook dumps both ladders, best price first.
func (engine *Engine) LogBook() {
	book := engine.Book

	logSide := func(name string, levels *PriceLevels) {
		levels.Scan(func(level *PriceLevel) bool {
			log.Info().
				Str("side", name).
				Float64("price", float64(level.Price)).
				Int("orders", len(level.Orders)).
				Float64("volume", float64(level.Volume())).
				Msg("level")
			return true
		})
	}

	log.Info().
		Float64("bidVolume", float64(book.buyVolume)).
		Float64("askVolume", float64(book.sellVolume)).
		Msg("book")
	logSide("ask", book.Asks)
	logSide("bid", book.Bids)
}
