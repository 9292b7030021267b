package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"attsim/internal/domain"
)

// Compile-time interface checks.
var _ PriceTableStore = (*CSVStore)(nil)
var _ FactorTableStore = (*CSVStore)(nil)

// CSVStore reads and writes the price and factor tables as plain CSV files.
//
// prices.csv carries the fixed columns date,symbol,close,high,low. The
// factor file carries date,symbol followed by arbitrary factor columns;
// blank cells mean the factor was not reported for that (symbol, date).
type CSVStore struct {
	PricesPath  string
	FactorsPath string
}

// NewCSVStore creates a CSVStore over the two table files.
func NewCSVStore(pricesPath, factorsPath string) *CSVStore {
	return &CSVStore{PricesPath: pricesPath, FactorsPath: factorsPath}
}

// ---------------------------------------------------------------------------
// Price table
// ---------------------------------------------------------------------------

// ReadPrices loads every price bar from the prices CSV.
func (s *CSVStore) ReadPrices(_ context.Context) ([]domain.PriceBar, error) {
	records, err := readCSV(s.PricesPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: missing header row", s.PricesPath)
	}

	cols, err := columnIndex(records[0], "date", "symbol", "close", "high", "low")
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.PricesPath, err)
	}

	bars := make([]domain.PriceBar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < len(records[0]) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d",
				s.PricesPath, i+2, len(records[0]), len(rec))
		}
		date, err := parseDate(rec[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.PricesPath, i+2, err)
		}
		bar := domain.PriceBar{Date: date, Symbol: rec[cols["symbol"]]}
		for name, dst := range map[string]*float64{
			"close": &bar.Close, "high": &bar.High, "low": &bar.Low,
		} {
			v, err := strconv.ParseFloat(rec[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad %s: %w", s.PricesPath, i+2, name, err)
			}
			*dst = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// WritePrices writes the full price table, replacing the file.
func (s *CSVStore) WritePrices(_ context.Context, bars []domain.PriceBar) error {
	rows := [][]string{{"date", "symbol", "close", "high", "low"}}
	for _, b := range bars {
		rows = append(rows, []string{
			b.Date.Format(DateLayout),
			b.Symbol,
			formatFloat(b.Close),
			formatFloat(b.High),
			formatFloat(b.Low),
		})
	}
	return writeCSV(s.PricesPath, rows)
}

// ---------------------------------------------------------------------------
// Factor table
// ---------------------------------------------------------------------------

// ReadFactors loads every factor row from the factors CSV. Every column
// other than date and symbol is treated as a factor; blank cells are
// omitted from the row's value map.
func (s *CSVStore) ReadFactors(_ context.Context) ([]domain.FactorRow, error) {
	records, err := readCSV(s.FactorsPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: missing header row", s.FactorsPath)
	}

	header := records[0]
	cols, err := columnIndex(header, "date", "symbol")
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.FactorsPath, err)
	}

	rows := make([]domain.FactorRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) <= cols["date"] || len(rec) <= cols["symbol"] {
			return nil, fmt.Errorf("%s row %d: too few columns", s.FactorsPath, i+2)
		}
		date, err := parseDate(rec[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.FactorsPath, i+2, err)
		}
		row := domain.FactorRow{
			Date:   date,
			Symbol: rec[cols["symbol"]],
			Values: make(map[string]float64),
		}
		for j, name := range header {
			if j >= len(rec) || name == "date" || name == "symbol" || rec[j] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad %s: %w", s.FactorsPath, i+2, name, err)
			}
			row.Values[name] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteFactors writes the full factor table, replacing the file. The column
// set is the union of factor names across all rows, sorted for a stable
// header; unreported factors are written as blank cells.
func (s *CSVStore) WriteFactors(_ context.Context, rows []domain.FactorRow) error {
	factorCols := factorColumns(rows)

	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string{"date", "symbol"}, factorCols...))
	for _, r := range rows {
		rec := []string{r.Date.Format(DateLayout), r.Symbol}
		for _, name := range factorCols {
			if v, ok := r.Values[name]; ok {
				rec = append(rec, formatFloat(v))
			} else {
				rec = append(rec, "")
			}
		}
		out = append(out, rec)
	}
	return writeCSV(s.FactorsPath, out)
}

// ---------------------------------------------------------------------------
// Run output writers
// ---------------------------------------------------------------------------

// WriteEquityCurveCSV writes an equity curve to path, one row per date.
func WriteEquityCurveCSV(path string, curve []domain.EquityPoint) error {
	rows := [][]string{{"date", "equity", "signal", "ret"}}
	for _, p := range curve {
		rows = append(rows, []string{
			p.Date.Format(DateLayout),
			formatFloat(p.Equity),
			string(p.Signal),
			formatFloat(p.Return),
		})
	}
	return writeCSV(path, rows)
}

// WriteTradesCSV writes a trade ledger to path, one row per fill.
func WriteTradesCSV(path string, trades []domain.TradeRecord) error {
	rows := [][]string{{
		"date", "action", "symbol", "qty", "price", "gross_value",
		"cash_before", "cash_after", "position_after_qty", "day_signal",
	}}
	for _, t := range trades {
		rows = append(rows, []string{
			t.Date.Format(DateLayout),
			string(t.Action),
			t.Symbol,
			formatFloat(t.Qty),
			formatFloat(t.Price),
			formatFloat(t.Gross),
			formatFloat(t.CashBefore),
			formatFloat(t.CashAfter),
			formatFloat(t.PosAfter),
			string(t.DaySignal),
		})
	}
	return writeCSV(path, rows)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// columnIndex maps the required column names to their header positions.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func factorColumns(rows []domain.FactorRow) []string {
	set := make(map[string]bool)
	for _, r := range rows {
		for name := range r.Values {
			set[name] = true
		}
	}
	cols := make([]string, 0, len(set))
	for name := range set {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
