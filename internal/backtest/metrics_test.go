package backtest

import (
	"math"
	"testing"

	"attsim/internal/domain"
)

func TestComputeMetricsCurveStats(t *testing.T) {
	curve := []domain.EquityPoint{
		{Date: day(1), Equity: 100},
		{Date: day(2), Equity: 120},
		{Date: day(3), Equity: 90},
		{Date: day(4), Equity: 108},
	}
	fillReturns(curve)

	m := ComputeMetrics(curve, nil)

	if math.Abs(m.TotalReturn-0.08) > 1e-12 {
		t.Errorf("TotalReturn = %v, want 0.08", m.TotalReturn)
	}
	// Peak 120 down to 90.
	if math.Abs(m.MaxDrawdown-0.25) > 1e-12 {
		t.Errorf("MaxDrawdown = %v, want 0.25", m.MaxDrawdown)
	}
	if m.TotalTrades != 0 || m.RoundTrips != 0 || m.WinRate != 0 {
		t.Errorf("trade stats = %+v, want zeroes without a ledger", m)
	}
}

func TestComputeMetricsEmptyCurve(t *testing.T) {
	m := ComputeMetrics(nil, nil)
	if m.TotalReturn != 0 || m.MaxDrawdown != 0 || m.SharpeRatio != 0 {
		t.Errorf("metrics on empty curve = %+v, want zero value", m)
	}
}

func TestRoundTripWinRate(t *testing.T) {
	trades := []domain.TradeRecord{
		{Action: domain.ActionBuy, Symbol: "AAA", Price: 10},
		{Action: domain.ActionBuy, Symbol: "BBB", Price: 20},
		{Action: domain.ActionSell, Symbol: "AAA", Price: 12}, // win
		{Action: domain.ActionSell, Symbol: "BBB", Price: 15}, // loss
		{Action: domain.ActionBuy, Symbol: "AAA", Price: 11},
		{Action: domain.ActionSell, Symbol: "AAA", Price: 11}, // flat exit: not a win
		{Action: domain.ActionSell, Symbol: "CCC", Price: 5},  // no matching entry
	}

	roundTrips, winRate := roundTripWinRate(trades)
	if roundTrips != 3 {
		t.Errorf("roundTrips = %d, want 3", roundTrips)
	}
	if math.Abs(winRate-1.0/3.0) > 1e-12 {
		t.Errorf("winRate = %v, want 1/3", winRate)
	}
}
