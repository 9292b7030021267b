// Package marketdata provides in-memory tables over daily price and factor
// observations, with windowed as-of-date lookups for the simulation core.
// Loading and persistence of the underlying rows live in internal/store;
// the tables here are pure read-side structures.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"attsim/internal/domain"
)

// Field names accepted by PriceTable.History.
const (
	FieldClose = "close"
	FieldHigh  = "high"
	FieldLow   = "low"
)

// Row is one entry of a History result: a date plus the requested fields.
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// PriceTable indexes daily price bars by symbol and by date. It is built
// once from loaded rows and never mutated afterwards.
type PriceTable struct {
	bySymbol map[string][]domain.PriceBar // ascending by date
	dates    []time.Time                  // distinct, ascending
}

// NewPriceTable builds a PriceTable from the given bars. It rejects
// duplicate (symbol, date) observations, which would otherwise silently
// corrupt windowed lookups.
func NewPriceTable(bars []domain.PriceBar) (*PriceTable, error) {
	t := &PriceTable{bySymbol: make(map[string][]domain.PriceBar)}

	seen := make(map[string]map[time.Time]bool)
	dateSet := make(map[time.Time]bool)
	for _, b := range bars {
		if seen[b.Symbol] == nil {
			seen[b.Symbol] = make(map[time.Time]bool)
		}
		if seen[b.Symbol][b.Date] {
			return nil, fmt.Errorf("duplicate price observation for %s on %s",
				b.Symbol, b.Date.Format("2006-01-02"))
		}
		seen[b.Symbol][b.Date] = true
		dateSet[b.Date] = true
		t.bySymbol[b.Symbol] = append(t.bySymbol[b.Symbol], b)
	}

	for sym := range t.bySymbol {
		s := t.bySymbol[sym]
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}

	t.dates = make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		t.dates = append(t.dates, d)
	}
	sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })

	return t, nil
}

// Dates returns the distinct observation dates across all symbols in
// ascending order. The returned slice is shared; callers must not modify it.
func (t *PriceTable) Dates() []time.Time {
	return t.dates
}

// Symbols returns all symbols present in the table, sorted.
func (t *PriceTable) Symbols() []string {
	syms := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// History returns up to count rows of the requested fields for symbol,
// taken from observations with date <= asOf, ascending by date, truncated
// to the most recent count. A zero asOf means the symbol's latest date.
// Fewer than count rows are returned when less history exists; the result
// is never padded.
func (t *PriceTable) History(symbol string, fields []string, count int, asOf time.Time) []Row {
	bars := t.bySymbol[symbol]
	if len(bars) == 0 || count <= 0 {
		return nil
	}
	if asOf.IsZero() {
		asOf = bars[len(bars)-1].Date
	}
	// First index with date > asOf.
	end := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(asOf) })
	return rowsFrom(bars[:end], fields, count)
}

// HistoryBefore is History with a strict date < before cutoff. It backs the
// timing signal's warm start, which must not see the first simulated date.
func (t *PriceTable) HistoryBefore(symbol string, fields []string, count int, before time.Time) []Row {
	bars := t.bySymbol[symbol]
	if len(bars) == 0 || count <= 0 {
		return nil
	}
	end := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(before) })
	return rowsFrom(bars[:end], fields, count)
}

func rowsFrom(bars []domain.PriceBar, fields []string, count int) []Row {
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	rows := make([]Row, 0, len(bars))
	for _, b := range bars {
		values := make(map[string]float64, len(fields))
		for _, f := range fields {
			switch f {
			case FieldClose:
				values[f] = b.Close
			case FieldHigh:
				values[f] = b.High
			case FieldLow:
				values[f] = b.Low
			}
		}
		rows = append(rows, Row{Date: b.Date, Values: values})
	}
	return rows
}

// CloseOn returns the closing price of symbol on the exact date, and whether
// an observation exists for that day.
func (t *PriceTable) CloseOn(symbol string, date time.Time) (float64, bool) {
	bars := t.bySymbol[symbol]
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(date) })
	if i < len(bars) && bars[i].Date.Equal(date) {
		return bars[i].Close, true
	}
	return 0, false
}

// SnapshotCloses returns symbol -> close for every symbol observed on the
// given date.
func (t *PriceTable) SnapshotCloses(date time.Time) map[string]float64 {
	snap := make(map[string]float64)
	for sym, bars := range t.bySymbol {
		i := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(date) })
		if i < len(bars) && bars[i].Date.Equal(date) {
			snap[sym] = bars[i].Close
		}
	}
	return snap
}
