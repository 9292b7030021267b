package marketdata

import (
	"testing"
	"time"

	"attsim/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(sym string, d int, close float64) domain.PriceBar {
	return domain.PriceBar{Date: day(d), Symbol: sym, Close: close, High: close + 1, Low: close - 1}
}

func TestNewPriceTableRejectsDuplicates(t *testing.T) {
	_, err := NewPriceTable([]domain.PriceBar{bar("AAA", 1, 10), bar("AAA", 1, 11)})
	if err == nil {
		t.Fatal("NewPriceTable accepted a duplicate (symbol, date) observation")
	}
}

func TestPriceTableDatesAndSymbols(t *testing.T) {
	// Insertion order deliberately scrambled.
	tbl, err := NewPriceTable([]domain.PriceBar{
		bar("BBB", 3, 20), bar("AAA", 1, 10), bar("AAA", 3, 12), bar("AAA", 2, 11),
	})
	if err != nil {
		t.Fatalf("NewPriceTable returned error: %v", err)
	}

	dates := tbl.Dates()
	if len(dates) != 3 {
		t.Fatalf("len(Dates()) = %d, want 3", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			t.Errorf("Dates() not ascending at %d: %v >= %v", i, dates[i-1], dates[i])
		}
	}

	syms := tbl.Symbols()
	if len(syms) != 2 || syms[0] != "AAA" || syms[1] != "BBB" {
		t.Errorf("Symbols() = %v, want [AAA BBB]", syms)
	}
}

func TestHistoryWindow(t *testing.T) {
	tbl, err := NewPriceTable([]domain.PriceBar{
		bar("AAA", 1, 10), bar("AAA", 2, 11), bar("AAA", 3, 12), bar("AAA", 4, 13),
	})
	if err != nil {
		t.Fatalf("NewPriceTable returned error: %v", err)
	}

	rows := tbl.History("AAA", []string{FieldClose}, 2, day(3))
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if !rows[0].Date.Equal(day(2)) || !rows[1].Date.Equal(day(3)) {
		t.Errorf("rows dates = %v, %v, want days 2 and 3", rows[0].Date, rows[1].Date)
	}
	if rows[1].Values[FieldClose] != 12 {
		t.Errorf("close on day 3 = %v, want 12", rows[1].Values[FieldClose])
	}

	// asOf between observations: day 3 is the latest usable bar.
	rows = tbl.History("AAA", []string{FieldClose}, 10, day(3))
	if len(rows) != 3 {
		t.Errorf("len(rows) = %d, want 3 (never padded)", len(rows))
	}

	// Zero asOf defaults to the symbol's latest date.
	rows = tbl.History("AAA", []string{FieldHigh, FieldLow}, 1, time.Time{})
	if len(rows) != 1 || !rows[0].Date.Equal(day(4)) {
		t.Fatalf("latest row = %+v, want day 4", rows)
	}
	if rows[0].Values[FieldHigh] != 14 || rows[0].Values[FieldLow] != 12 {
		t.Errorf("high/low = %v/%v, want 14/12", rows[0].Values[FieldHigh], rows[0].Values[FieldLow])
	}

	if rows := tbl.History("ZZZ", []string{FieldClose}, 5, time.Time{}); rows != nil {
		t.Errorf("History of unknown symbol = %v, want nil", rows)
	}
}

func TestHistoryBeforeIsStrict(t *testing.T) {
	tbl, _ := NewPriceTable([]domain.PriceBar{
		bar("AAA", 1, 10), bar("AAA", 2, 11), bar("AAA", 3, 12),
	})

	rows := tbl.HistoryBefore("AAA", []string{FieldClose}, 10, day(3))
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (day 3 excluded)", len(rows))
	}
	if !rows[1].Date.Equal(day(2)) {
		t.Errorf("last row date = %v, want day 2", rows[1].Date)
	}
}

func TestCloseOnAndSnapshot(t *testing.T) {
	tbl, _ := NewPriceTable([]domain.PriceBar{
		bar("AAA", 1, 10), bar("BBB", 1, 20), bar("AAA", 2, 11),
	})

	if px, ok := tbl.CloseOn("BBB", day(1)); !ok || px != 20 {
		t.Errorf("CloseOn(BBB, day1) = %v, %v, want 20, true", px, ok)
	}
	if _, ok := tbl.CloseOn("BBB", day(2)); ok {
		t.Error("CloseOn(BBB, day2) reported a price for a missing observation")
	}

	snap := tbl.SnapshotCloses(day(1))
	if len(snap) != 2 || snap["AAA"] != 10 || snap["BBB"] != 20 {
		t.Errorf("SnapshotCloses(day1) = %v, want AAA:10 BBB:20", snap)
	}
	if snap := tbl.SnapshotCloses(day(2)); len(snap) != 1 || snap["AAA"] != 11 {
		t.Errorf("SnapshotCloses(day2) = %v, want AAA:11 only", snap)
	}
}
