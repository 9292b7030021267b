// Package portfolio holds the simulated cash/position book and the
// execution rules that turn daily signals into fills and ledger entries.
package portfolio

import (
	"time"

	"attsim/internal/domain"
)

// ExecStatus reports how an execution request was handled. Invalid inputs
// are absorbed as guarded no-ops rather than errors so that a bad symbol or
// a missing price never interrupts the daily loop, while tests can still
// observe why nothing happened.
type ExecStatus int

const (
	Executed ExecStatus = iota
	SkippedBadPrice
	SkippedBadValue
	SkippedNoPosition
)

// PriceSource supplies the fill price for a symbol on a date. The second
// return value is false when no observation exists for that day.
type PriceSource interface {
	CloseOn(symbol string, date time.Time) (float64, bool)
}

// Book is the portfolio state: cash plus open positions, with an append-only
// trade ledger. It is owned exclusively by the simulation loop and mutated
// in place, date by date.
//
// Positions iterate in insertion order so that fills, and therefore the
// ledger, come out deterministic run over run.
type Book struct {
	cash            float64
	positions       map[string]domain.Position
	order           []string // symbols in position-open order
	trades          []domain.TradeRecord
	targetPositions int
}

// NewBook creates a Book with the given starting cash and target position
// count.
func NewBook(initialCash float64, targetPositions int) *Book {
	return &Book{
		cash:            initialCash,
		positions:       make(map[string]domain.Position),
		targetPositions: targetPositions,
	}
}

// Cash returns the current cash balance.
func (b *Book) Cash() float64 { return b.cash }

// Position returns the open position for symbol, if any.
func (b *Book) Position(symbol string) (domain.Position, bool) {
	p, ok := b.positions[symbol]
	return p, ok
}

// Holdings returns the currently held symbols in position-open order.
func (b *Book) Holdings() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Trades returns the append-only trade ledger in execution order.
func (b *Book) Trades() []domain.TradeRecord { return b.trades }

// Open buys targetValue worth of symbol at fillPrice, increasing any
// existing position. Non-positive price or value makes it a no-op.
func (b *Book) Open(symbol string, targetValue, fillPrice float64, date time.Time, daySignal domain.Signal) ExecStatus {
	if fillPrice <= 0 {
		return SkippedBadPrice
	}
	if targetValue <= 0 {
		return SkippedBadValue
	}

	qty := targetValue / fillPrice
	cashBefore := b.cash
	b.cash -= targetValue

	pos, held := b.positions[symbol]
	pos.Qty += qty
	pos.LastFill = fillPrice
	b.positions[symbol] = pos
	if !held {
		b.order = append(b.order, symbol)
	}

	b.log(date, domain.ActionBuy, symbol, qty, fillPrice, cashBefore, pos.Qty, daySignal)
	return Executed
}

// Close sells the entire position in symbol at fillPrice and removes it from
// the book; a quantity-zero residue is never left behind. Missing position
// or non-positive price makes it a no-op.
func (b *Book) Close(symbol string, fillPrice float64, date time.Time, daySignal domain.Signal) ExecStatus {
	pos, held := b.positions[symbol]
	if !held || pos.Qty <= 0 {
		return SkippedNoPosition
	}
	if fillPrice <= 0 {
		return SkippedBadPrice
	}

	cashBefore := b.cash
	b.cash += pos.Qty * fillPrice
	delete(b.positions, symbol)
	b.dropFromOrder(symbol)

	b.log(date, domain.ActionSell, symbol, pos.Qty, fillPrice, cashBefore, 0, daySignal)
	return Executed
}

// Rebalance moves the book toward the candidate list: positions outside the
// list are closed at the day's price, then the remaining open slots are
// filled equal-weighted from current cash, iterating candidates in order.
// Symbols with no price observation for the date are skipped on both legs;
// a skipped candidate does not consume a slot. The per-slot value is
// recomputed from current cash on every call, never carried across days.
func (b *Book) Rebalance(candidates []string, date time.Time, prices PriceSource, daySignal domain.Signal) {
	keep := make(map[string]bool, len(candidates))
	for _, s := range candidates {
		keep[s] = true
	}
	for _, sym := range b.Holdings() {
		if keep[sym] {
			continue
		}
		if px, ok := prices.CloseOn(sym, date); ok {
			b.Close(sym, px, date, daySignal)
		}
	}

	slots := b.targetPositions - len(b.positions)
	if slots <= 0 {
		return
	}
	perSlot := b.cash / float64(slots)

	for _, sym := range candidates {
		if slots == 0 {
			break
		}
		if _, held := b.positions[sym]; held {
			continue
		}
		px, ok := prices.CloseOn(sym, date)
		if !ok {
			continue
		}
		if b.Open(sym, perSlot, px, date, daySignal) == Executed {
			slots--
		}
	}
}

// LiquidateAll closes every held position that has a price observation for
// the date. Positions without one stay open until a later date; they are
// never force-closed without a price.
func (b *Book) LiquidateAll(date time.Time, prices PriceSource, daySignal domain.Signal) {
	for _, sym := range b.Holdings() {
		if px, ok := prices.CloseOn(sym, date); ok {
			b.Close(sym, px, date, daySignal)
		}
	}
}

// TotalValue marks the book to market: cash plus quantity times the day's
// close for every held symbol. A held symbol absent from priceMap
// contributes 0 for the day; that understatement is a known limitation of
// daily-close data, kept rather than papered over.
func (b *Book) TotalValue(priceMap map[string]float64) float64 {
	total := b.cash
	for sym, pos := range b.positions {
		total += pos.Qty * priceMap[sym]
	}
	return total
}

func (b *Book) log(date time.Time, action domain.Action, symbol string, qty, price, cashBefore, posAfter float64, daySignal domain.Signal) {
	b.trades = append(b.trades, domain.TradeRecord{
		Date:       date,
		Action:     action,
		Symbol:     symbol,
		Qty:        qty,
		Price:      price,
		Gross:      qty * price,
		CashBefore: cashBefore,
		CashAfter:  b.cash,
		PosAfter:   posAfter,
		DaySignal:  daySignal,
	})
}

func (b *Book) dropFromOrder(symbol string) {
	for i, s := range b.order {
		if s == symbol {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}
