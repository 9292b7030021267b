// Package filter implements the multi-stage cross-sectional factor screen
// that selects the day's tradable candidate list.
package filter

import (
	"math"
	"sort"
	"time"

	"attsim/internal/marketdata"
)

// Factor column names used by the screen.
const (
	FactorNetProfitGrowth = "net_profit_growth_ratio"
	FactorHistPEG         = "his_peg"
	FactorMarketCap       = "current_market_cap"
)

// Screen ranks a candidate universe against the factor table for a target
// date. Missing factor data never fails a stage: every stage degrades to a
// deterministic, order-preserving truncation of its input.
type Screen struct {
	factors *marketdata.FactorTable
}

// NewScreen creates a Screen over the given factor table.
func NewScreen(factors *marketdata.FactorTable) *Screen {
	return &Screen{factors: factors}
}

// Candidates runs the full pipeline for date:
//
//  1. top 10% by net profit growth ratio, descending
//  2. of those, top 50% by historical PEG, ascending
//  3. reorder ascending by market cap when the factor is available
//
// The result is not truncated here; the caller caps it at the portfolio's
// target position count.
func (s *Screen) Candidates(universe []string, date time.Time) []string {
	step1 := s.rank(universe, FactorNetProfitGrowth, false, 0.10, date)
	step2 := s.rank(step1, FactorHistPEG, true, 0.50, date)
	return s.orderByMarketCap(step2, date)
}

// rank keeps the top proportion of symbols ordered by the named factor.
// The cutoff is max(1, floor(proportion * len(symbols))), counted against
// the input length, not against how many symbols reported a value. When no
// values are reported for the date the fallback keeps the first cutoff
// symbols of the input, preserving input order.
func (s *Screen) rank(symbols []string, factor string, ascending bool, proportion float64, date time.Time) []string {
	if len(symbols) == 0 {
		return nil
	}
	cutoff := topCount(proportion, len(symbols))

	values := s.factors.ValuesOn(date, symbols, factor)
	if len(values) == 0 {
		return symbols[:cutoff]
	}

	// Stable sort: ties keep the factor table's row order.
	sort.SliceStable(values, func(i, j int) bool {
		if ascending {
			return values[i].Value < values[j].Value
		}
		return values[i].Value > values[j].Value
	})

	if len(values) > cutoff {
		values = values[:cutoff]
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Symbol
	}
	return out
}

// orderByMarketCap sorts symbols ascending by market cap. Symbols without a
// reported market cap drop out of the reordered list; if none report one,
// the input is returned unchanged.
func (s *Screen) orderByMarketCap(symbols []string, date time.Time) []string {
	values := s.factors.ValuesOn(date, symbols, FactorMarketCap)
	if len(values) == 0 {
		return symbols
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Value < values[j].Value })
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Symbol
	}
	return out
}

func topCount(proportion float64, n int) int {
	c := int(math.Floor(proportion * float64(n)))
	if c < 1 {
		return 1
	}
	return c
}
