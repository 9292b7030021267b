package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"attsim/internal/domain"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Metrics summarizes a finished run. Everything here is derived from the
// equity curve and ledger after the loop; nothing feeds back into the
// simulation.
type Metrics struct {
	TotalReturn float64
	MaxDrawdown float64
	DailyMean   float64
	DailyStdDev float64
	SharpeRatio float64
	TotalTrades int
	RoundTrips  int
	WinRate     float64
}

// ComputeMetrics computes summary statistics over an equity curve and its
// trade ledger.
func ComputeMetrics(curve []domain.EquityPoint, trades []domain.TradeRecord) Metrics {
	m := Metrics{TotalTrades: len(trades)}
	if len(curve) == 0 {
		return m
	}

	if first := curve[0].Equity; first != 0 {
		m.TotalReturn = curve[len(curve)-1].Equity/first - 1
	}
	m.MaxDrawdown = maxDrawdown(curve)

	if len(curve) > 1 {
		returns := make([]float64, len(curve)-1)
		for i := 1; i < len(curve); i++ {
			returns[i-1] = curve[i].Return
		}
		m.DailyMean = stat.Mean(returns, nil)
		if len(returns) > 1 {
			m.DailyStdDev = stat.StdDev(returns, nil)
		}
		if m.DailyStdDev > 0 {
			m.SharpeRatio = m.DailyMean / m.DailyStdDev * math.Sqrt(tradingDaysPerYear)
		}
	}

	m.RoundTrips, m.WinRate = roundTripWinRate(trades)
	return m
}

// maxDrawdown is the largest peak-to-trough equity loss, as a positive
// fraction of the peak.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// roundTripWinRate pairs each SELL with the most recent preceding BUY fill
// of the same symbol and counts a win when the exit price beats the entry.
// Fills are closed in full, so the ledger order makes the pairing exact.
func roundTripWinRate(trades []domain.TradeRecord) (roundTrips int, winRate float64) {
	lastBuy := make(map[string]float64)
	var wins int
	for _, t := range trades {
		switch t.Action {
		case domain.ActionBuy:
			lastBuy[t.Symbol] = t.Price
		case domain.ActionSell:
			entry, ok := lastBuy[t.Symbol]
			if !ok {
				continue
			}
			roundTrips++
			if t.Price > entry {
				wins++
			}
			delete(lastBuy, t.Symbol)
		}
	}
	if roundTrips > 0 {
		winRate = float64(wins) / float64(roundTrips)
	}
	return roundTrips, winRate
}
