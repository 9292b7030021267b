package marketdata

import (
	"fmt"
	"time"

	"attsim/internal/domain"
)

// SymbolValue pairs a symbol with one of its factor values, in factor table
// row order. Cross-sectional ranking sorts these with a stable sort so that
// ties keep the table's natural order.
type SymbolValue struct {
	Symbol string
	Value  float64
}

// FactorTable indexes sparse factor rows by date, preserving the input row
// order within each date.
type FactorTable struct {
	byDate map[time.Time][]domain.FactorRow
}

// NewFactorTable builds a FactorTable from the given rows, rejecting
// duplicate (symbol, date) entries.
func NewFactorTable(rows []domain.FactorRow) (*FactorTable, error) {
	t := &FactorTable{byDate: make(map[time.Time][]domain.FactorRow)}
	seen := make(map[string]map[time.Time]bool)
	for _, r := range rows {
		if seen[r.Symbol] == nil {
			seen[r.Symbol] = make(map[time.Time]bool)
		}
		if seen[r.Symbol][r.Date] {
			return nil, fmt.Errorf("duplicate factor row for %s on %s",
				r.Symbol, r.Date.Format("2006-01-02"))
		}
		seen[r.Symbol][r.Date] = true
		t.byDate[r.Date] = append(t.byDate[r.Date], r)
	}
	return t, nil
}

// Value looks up a single factor for (date, symbol). Found is false when the
// date has no rows, the symbol is absent, or the column was not reported.
func (t *FactorTable) Value(date time.Time, symbol, factor string) domain.FactorValue {
	for _, r := range t.byDate[date] {
		if r.Symbol != symbol {
			continue
		}
		if v, ok := r.Values[factor]; ok {
			return domain.FactorValue{Value: v, Found: true}
		}
		return domain.FactorValue{}
	}
	return domain.FactorValue{}
}

// ValuesOn collects the factor values reported on date for the given
// symbols, in the table's row order. Symbols without a reported value are
// omitted; an empty result signals the caller's missing-data fallback.
func (t *FactorTable) ValuesOn(date time.Time, symbols []string, factor string) []SymbolValue {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []SymbolValue
	for _, r := range t.byDate[date] {
		if !want[r.Symbol] {
			continue
		}
		if v, ok := r.Values[factor]; ok {
			out = append(out, SymbolValue{Symbol: r.Symbol, Value: v})
		}
	}
	return out
}
