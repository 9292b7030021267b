// Package domain defines the core value types shared across the attsim
// simulation: price and factor observations, portfolio positions, trade
// records, and equity curve points.
package domain

import "time"

// Signal is the portfolio-level timing classification for a trading day.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalKeep Signal = "KEEP"
)

// Action identifies the direction of an executed fill.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// PriceBar is a single daily price observation for one symbol. There is at
// most one bar per (symbol, date); bars are immutable once loaded.
type PriceBar struct {
	Date   time.Time
	Symbol string
	Close  float64
	High   float64
	Low    float64
}

// FactorRow holds the factor values recorded for one symbol on one date.
// Columns are sparse: a factor absent from Values was not reported that day.
type FactorRow struct {
	Date   time.Time
	Symbol string
	Values map[string]float64
}

// FactorValue is the result of a single factor lookup. Found distinguishes
// a genuinely reported value from a missing column or row, so callers branch
// on presence explicitly instead of treating zero as absent.
type FactorValue struct {
	Value float64
	Found bool
}

// Position is a single holding inside a portfolio. Quantity is always
// strictly positive: a fully closed position is removed from the book,
// never left behind with quantity zero.
type Position struct {
	Qty      float64
	LastFill float64
}

// TradeRecord is one executed fill in the append-only trade ledger. Cash
// before/after and the resulting position quantity are captured at fill time
// so the ledger reconciles against the portfolio without replaying it.
type TradeRecord struct {
	Date       time.Time
	Action     Action
	Symbol     string
	Qty        float64
	Price      float64
	Gross      float64
	CashBefore float64
	CashAfter  float64
	PosAfter   float64
	DaySignal  Signal
}

// EquityPoint is one row of the simulated equity curve. Return is the simple
// day-over-day return, derived after the simulation loop; it is 0 on the
// first date.
type EquityPoint struct {
	Date   time.Time
	Equity float64
	Signal Signal
	Return float64
}
