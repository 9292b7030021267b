// Package signal maintains the rolling regression-slope history over the
// reference symbol and classifies each trading day as BUY, SELL, or KEEP.
package signal

import (
	"time"

	"github.com/gammazero/deque"

	"attsim/internal/analytics"
	"attsim/internal/domain"
	"attsim/internal/marketdata"
)

// Generator produces the daily timing signal. It owns the rolling slope
// history: a sliding window of the most recent regression slopes, capped at
// the configured capacity, mutated only by Step.
type Generator struct {
	prices    *marketdata.PriceTable
	refSymbol string
	window    int     // regression window length (N)
	capacity  int     // slope history capacity (M)
	threshold float64 // score threshold for BUY/SELL

	slopes deque.Deque[float64]
}

// NewGenerator creates a Generator over the given price table. window and
// capacity must be positive.
func NewGenerator(prices *marketdata.PriceTable, refSymbol string, window, capacity int, threshold float64) *Generator {
	return &Generator{
		prices:    prices,
		refSymbol: refSymbol,
		window:    window,
		capacity:  capacity,
		threshold: threshold,
	}
}

// WarmStart seeds the slope history from the bars strictly before the first
// simulated date. It computes the regression slope for every sliding window
// of length N within the last N+M bars before firstDate and keeps all but
// the last of those slopes, so z-scores have depth from day one. With too
// little prior history the seed is simply shorter, or empty.
func (g *Generator) WarmStart(firstDate time.Time) {
	fields := []string{marketdata.FieldHigh, marketdata.FieldLow}
	rows := g.prices.HistoryBefore(g.refSymbol, fields, g.window+g.capacity, firstDate)
	if len(rows) < g.window {
		return
	}

	var seed []float64
	for i := 0; i+g.window <= len(rows); i++ {
		lows, highs := extract(rows[i : i+g.window])
		fit, err := analytics.LeastSquares(lows, highs)
		if err != nil {
			continue
		}
		seed = append(seed, fit.Slope)
	}
	if len(seed) > 0 {
		seed = seed[:len(seed)-1]
	}
	for _, s := range seed {
		g.push(s)
	}
}

// Step computes the signal for date. With fewer than N bars of history it
// returns KEEP without touching the slope history. Otherwise it regresses
// the window's highs on its lows, appends the slope, and scores the last
// element of the history against the window of the last M slopes, scaled by
// the fit quality of the current day's regression.
func (g *Generator) Step(date time.Time) domain.Signal {
	fields := []string{marketdata.FieldHigh, marketdata.FieldLow}
	rows := g.prices.History(g.refSymbol, fields, g.window, date)
	if len(rows) < g.window {
		return domain.SignalKeep
	}

	lows, highs := extract(rows)
	fit, err := analytics.LeastSquares(lows, highs)
	if err != nil {
		return domain.SignalKeep
	}
	g.push(fit.Slope)

	score := analytics.ZScoreLast(g.lastM()) * fit.Quality
	return g.classify(score)
}

// HistoryLen reports the current depth of the slope history.
func (g *Generator) HistoryLen() int {
	return g.slopes.Len()
}

// classify applies the strict threshold rule: a score exactly at the
// threshold (either side) stays KEEP.
func (g *Generator) classify(score float64) domain.Signal {
	switch {
	case score > g.threshold:
		return domain.SignalBuy
	case score < -g.threshold:
		return domain.SignalSell
	default:
		return domain.SignalKeep
	}
}

// push appends a slope and evicts from the front once capacity is exceeded,
// so the deque always holds the most recent M slopes at most.
func (g *Generator) push(slope float64) {
	g.slopes.PushBack(slope)
	for g.slopes.Len() > g.capacity {
		g.slopes.PopFront()
	}
}

// lastM materializes the slope window for scoring, oldest first.
func (g *Generator) lastM() []float64 {
	out := make([]float64, g.slopes.Len())
	for i := range out {
		out[i] = g.slopes.At(i)
	}
	return out
}

func extract(rows []marketdata.Row) (lows, highs []float64) {
	lows = make([]float64, len(rows))
	highs = make([]float64, len(rows))
	for i, r := range rows {
		lows[i] = r.Values[marketdata.FieldLow]
		highs[i] = r.Values[marketdata.FieldHigh]
	}
	return lows, highs
}
