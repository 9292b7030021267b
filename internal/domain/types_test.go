package domain

import (
	"testing"
	"time"
)

func TestTypesExist(t *testing.T) {
	// Verify the signal and action constants carry the wire values the
	// stores persist.
	if SignalBuy != "BUY" || SignalSell != "SELL" || SignalKeep != "KEEP" {
		t.Error("Signal constants have unexpected values")
	}
	if ActionBuy != "BUY" || ActionSell != "SELL" {
		t.Error("Action constants have unexpected values")
	}

	// Verify PriceBar can be instantiated with zero values.
	bar := PriceBar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value PriceBar")
	}
	if !bar.Date.IsZero() {
		t.Error("expected zero Date for zero-value PriceBar")
	}
	if bar.Close != 0 || bar.High != 0 || bar.Low != 0 {
		t.Error("expected zero price fields for zero-value PriceBar")
	}

	// Verify FactorValue distinguishes missing from zero.
	fv := FactorValue{}
	if fv.Found {
		t.Error("expected Found=false for zero-value FactorValue")
	}

	// Verify structs can be constructed with real values.
	now := time.Now()
	rec := TradeRecord{
		Date:       now,
		Action:     ActionBuy,
		Symbol:     "600000.SH",
		Qty:        300,
		Price:      10,
		Gross:      3000,
		CashBefore: 10000,
		CashAfter:  7000,
		PosAfter:   300,
		DaySignal:  SignalBuy,
	}
	if rec.CashBefore-rec.Gross != rec.CashAfter {
		t.Errorf("trade record cash delta %v, want %v", rec.CashBefore-rec.CashAfter, rec.Gross)
	}

	pt := EquityPoint{Date: now, Equity: 1_000_000, Signal: SignalKeep}
	if pt.Return != 0 {
		t.Errorf("pt.Return = %v, want 0", pt.Return)
	}
}
