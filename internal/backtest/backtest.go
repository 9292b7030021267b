// Package backtest drives the daily simulation loop, folding price and
// factor tables into an equity curve, a trade ledger, and summary metrics.
package backtest

import (
	"errors"
	"log/slog"

	"attsim/internal/domain"
	"attsim/internal/filter"
	"attsim/internal/marketdata"
	"attsim/internal/portfolio"
	"attsim/internal/signal"
)

// ErrNoData is returned when the price table has no dates to simulate. It is
// the only fatal condition inside the core: every other missing-data case
// degrades to a defined per-day fallback.
var ErrNoData = errors.New("backtest: price table has no dates to simulate")

// Config is the per-run parameter surface.
type Config struct {
	RefSymbol       string  // timing reference symbol, excluded from the universe
	TargetPositions int     // number of positions the book rebalances toward
	Window          int     // regression window length (N)
	HistoryCap      int     // slope history capacity (M)
	Threshold       float64 // score threshold for BUY/SELL
	InitialCash     float64
}

// Result bundles the outputs of one simulation run. EquityCurve and Trades
// are append-only and sorted ascending by date.
type Result struct {
	EquityCurve []domain.EquityPoint
	Trades      []domain.TradeRecord
	Metrics     Metrics
}

// Simulator owns the mutable run state (portfolio book, slope history) for
// the duration of a run. Runs are strictly sequential: the state at date t
// depends on every date before it, so dates are never reordered. Parallel
// backtests need fully independent Simulators.
type Simulator struct {
	prices  *marketdata.PriceTable
	factors *marketdata.FactorTable
	cfg     Config
	log     *slog.Logger
}

// New creates a Simulator over the given tables.
func New(prices *marketdata.PriceTable, factors *marketdata.FactorTable, cfg Config, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{prices: prices, factors: factors, cfg: cfg, log: log}
}

// Run executes the simulation over the sorted distinct dates of the price
// table. For each date it snapshots closes, asks the factor screen for the
// day's candidates, asks the signal generator for the day's classification,
// liquidates on SELL or rebalances otherwise, and marks the book to market.
func (s *Simulator) Run() (*Result, error) {
	dates := s.prices.Dates()
	if len(dates) == 0 {
		return nil, ErrNoData
	}

	universe := make([]string, 0)
	for _, sym := range s.prices.Symbols() {
		if sym != s.cfg.RefSymbol {
			universe = append(universe, sym)
		}
	}

	book := portfolio.NewBook(s.cfg.InitialCash, s.cfg.TargetPositions)
	screen := filter.NewScreen(s.factors)
	gen := signal.NewGenerator(s.prices, s.cfg.RefSymbol, s.cfg.Window, s.cfg.HistoryCap, s.cfg.Threshold)

	gen.WarmStart(dates[0])
	s.log.Debug("slope history seeded", "depth", gen.HistoryLen())

	curve := make([]domain.EquityPoint, 0, len(dates))
	for _, d := range dates {
		snapshot := s.prices.SnapshotCloses(d)

		buyList := screen.Candidates(universe, d)
		if len(buyList) > s.cfg.TargetPositions {
			buyList = buyList[:s.cfg.TargetPositions]
		}

		sig := gen.Step(d)
		if sig == domain.SignalSell {
			book.LiquidateAll(d, s.prices, sig)
		} else {
			book.Rebalance(buyList, d, s.prices, sig)
		}

		curve = append(curve, domain.EquityPoint{
			Date:   d,
			Equity: book.TotalValue(snapshot),
			Signal: sig,
		})
	}

	fillReturns(curve)

	res := &Result{
		EquityCurve: curve,
		Trades:      book.Trades(),
		Metrics:     ComputeMetrics(curve, book.Trades()),
	}
	s.log.Info("run complete",
		"dates", len(curve),
		"trades", len(res.Trades),
		"final_equity", curve[len(curve)-1].Equity,
	)
	return res, nil
}

// fillReturns derives each date's simple return from the previous date's
// equity. The first date's return is 0 by definition.
func fillReturns(curve []domain.EquityPoint) {
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev != 0 {
			curve[i].Return = (curve[i].Equity - prev) / prev
		}
	}
}
