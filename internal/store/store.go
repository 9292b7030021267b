// Package store loads the price/factor tables from disk and persists run
// outputs. It is the thin I/O boundary around the simulation core: the
// core packages never import it.
package store

import (
	"context"
	"time"

	"attsim/internal/domain"
)

// DateLayout is the on-disk date format for CSV and SQLite.
const DateLayout = "2006-01-02"

// PriceTableStore loads and persists the daily price table.
type PriceTableStore interface {
	// WritePrices persists a batch of price bars.
	WritePrices(ctx context.Context, bars []domain.PriceBar) error

	// ReadPrices returns every stored price bar.
	ReadPrices(ctx context.Context) ([]domain.PriceBar, error)
}

// FactorTableStore loads and persists the sparse factor table.
type FactorTableStore interface {
	// WriteFactors persists a batch of factor rows.
	WriteFactors(ctx context.Context, rows []domain.FactorRow) error

	// ReadFactors returns every stored factor row.
	ReadFactors(ctx context.Context) ([]domain.FactorRow, error)
}

// ResultWriter persists the outputs of a finished run.
type ResultWriter interface {
	// SaveRun stores the equity curve and trade ledger of one run.
	SaveRun(ctx context.Context, curve []domain.EquityPoint, trades []domain.TradeRecord) error
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
