package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"attsim/internal/domain"
)

// Compile-time interface checks.
var _ PriceTableStore = (*ParquetStore)(nil)
var _ FactorTableStore = (*ParquetStore)(nil)

// ParquetStore implements the table stores using Parquet files on disk.
// Prices live in one file per symbol; factors live in a single long-format
// file of (date, symbol, factor, value) rows, which keeps the schema fixed
// while the factor column set stays open-ended.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// PriceRecord is the Parquet schema for daily price bars.
type PriceRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, midnight UTC
	Close     float64 `parquet:"close"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
}

// FactorRecord is the Parquet schema for one factor value, long format.
type FactorRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, midnight UTC
	Factor    string  `parquet:"factor"`
	Value     float64 `parquet:"value"`
}

// ---------------------------------------------------------------------------
// Price table
// ---------------------------------------------------------------------------

// WritePrices writes price bars grouped into one file per symbol at
// <DataDir>/prices/<SYMBOL>.parquet, merging with any existing file and
// deduplicating by date (incoming rows win).
func (s *ParquetStore) WritePrices(_ context.Context, bars []domain.PriceBar) error {
	groups := make(map[string][]PriceRecord)
	for _, b := range bars {
		groups[b.Symbol] = append(groups[b.Symbol], PriceRecord{
			Symbol:    b.Symbol,
			Timestamp: b.Date.UnixMilli(),
			Close:     b.Close,
			High:      b.High,
			Low:       b.Low,
		})
	}

	for sym, records := range groups {
		path := s.pricePath(sym)
		existing, _ := readParquetFile[PriceRecord](path)
		merged := mergeByKey(existing, records, func(r PriceRecord) int64 { return r.Timestamp })
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s: %w", sym, err)
		}
	}
	return nil
}

// ReadPrices reads every stored price bar across all symbol files.
func (s *ParquetStore) ReadPrices(_ context.Context) ([]domain.PriceBar, error) {
	dir := filepath.Join(s.DataDir, "prices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var bars []domain.PriceBar
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		records, err := readParquetFile[PriceRecord](filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		for _, r := range records {
			bars = append(bars, domain.PriceBar{
				Date:   msToDate(r.Timestamp),
				Symbol: r.Symbol,
				Close:  r.Close,
				High:   r.High,
				Low:    r.Low,
			})
		}
	}
	return bars, nil
}

// ---------------------------------------------------------------------------
// Factor table
// ---------------------------------------------------------------------------

// WriteFactors flattens factor rows into long-format records at
// <DataDir>/factors.parquet, merged and deduplicated by
// (symbol, date, factor).
func (s *ParquetStore) WriteFactors(_ context.Context, rows []domain.FactorRow) error {
	var records []FactorRecord
	for _, row := range rows {
		names := make([]string, 0, len(row.Values))
		for name := range row.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			records = append(records, FactorRecord{
				Symbol:    row.Symbol,
				Timestamp: row.Date.UnixMilli(),
				Factor:    name,
				Value:     row.Values[name],
			})
		}
	}
	if len(records) == 0 {
		return nil
	}

	path := s.factorPath()
	existing, _ := readParquetFile[FactorRecord](path)
	merged := mergeByKey(existing, records, func(r FactorRecord) string {
		return fmt.Sprintf("%s|%d|%s", r.Symbol, r.Timestamp, r.Factor)
	})
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing factors: %w", err)
	}
	return nil
}

// ReadFactors regroups the long-format records into sparse per-(symbol,
// date) factor rows, ordered by date then by first appearance in the file.
func (s *ParquetStore) ReadFactors(_ context.Context) ([]domain.FactorRow, error) {
	records, err := readParquetFile[FactorRecord](s.factorPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	type key struct {
		symbol string
		ts     int64
	}
	index := make(map[key]int)
	var rows []domain.FactorRow
	for _, r := range records {
		k := key{r.Symbol, r.Timestamp}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, domain.FactorRow{
				Date:   msToDate(r.Timestamp),
				Symbol: r.Symbol,
				Values: make(map[string]float64),
			})
		}
		rows[i].Values[r.Factor] = r.Value
	}
	return rows, nil
}

// ---------------------------------------------------------------------------
// Path and file helpers
// ---------------------------------------------------------------------------

func (s *ParquetStore) pricePath(symbol string) string {
	return filepath.Join(s.DataDir, "prices", symbol+".parquet")
}

func (s *ParquetStore) factorPath() string {
	return filepath.Join(s.DataDir, "factors.parquet")
}

func msToDate(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeByKey deduplicates records by key, preferring incoming records over
// existing ones. Order is first appearance: existing records, then new keys
// in input order.
func mergeByKey[T any, K comparable](existing, incoming []T, keyOf func(T) K) []T {
	seen := make(map[K]int, len(existing)+len(incoming))
	merged := make([]T, 0, len(existing)+len(incoming))
	for _, r := range append(existing, incoming...) {
		k := keyOf(r)
		if i, ok := seen[k]; ok {
			merged[i] = r
			continue
		}
		seen[k] = len(merged)
		merged = append(merged, r)
	}
	return merged
}
