package main

import (
	"context"
	"flag"
	"log"
	"os"

	"attsim/internal/backtest"
	"attsim/internal/config"
	"attsim/internal/marketdata"
	"attsim/internal/store"
	"attsim/internal/util"
)

func main() {
	cfgPath := "config/attsim.yaml"
	if p := os.Getenv("ATTSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	refSymbol := flag.String("ref", "", "reference symbol override")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *refSymbol != "" {
		cfg.Backtest.RefSymbol = *refSymbol
	}
	if cfg.Backtest.RefSymbol == "" {
		log.Fatal("no reference symbol configured (backtest.ref_symbol or -ref)")
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx := context.Background()

	var (
		prices  store.PriceTableStore
		factors store.FactorTableStore
	)
	switch cfg.Storage.Format {
	case "parquet":
		ps := store.NewParquetStore(cfg.Storage.DataDir)
		prices, factors = ps, ps
	default:
		cs := store.NewCSVStore(cfg.Storage.PricesCSV, cfg.Storage.FactorsCSV)
		prices, factors = cs, cs
	}

	priceBars, err := prices.ReadPrices(ctx)
	if err != nil {
		log.Fatalf("failed to load price table: %v", err)
	}
	factorRows, err := factors.ReadFactors(ctx)
	if err != nil {
		log.Fatalf("failed to load factor table: %v", err)
	}

	priceTable, err := marketdata.NewPriceTable(priceBars)
	if err != nil {
		log.Fatalf("bad price table: %v", err)
	}
	factorTable, err := marketdata.NewFactorTable(factorRows)
	if err != nil {
		log.Fatalf("bad factor table: %v", err)
	}

	sim := backtest.New(priceTable, factorTable, backtest.Config{
		RefSymbol:       cfg.Backtest.RefSymbol,
		TargetPositions: cfg.Backtest.TargetPositions,
		Window:          cfg.Backtest.Window,
		HistoryCap:      cfg.Backtest.HistoryCap,
		Threshold:       cfg.Backtest.Threshold,
		InitialCash:     cfg.Backtest.InitialCash,
	}, logger)

	res, err := sim.Run()
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer results.Close()

	if err := results.SaveRun(ctx, res.EquityCurve, res.Trades); err != nil {
		log.Fatalf("failed to persist run: %v", err)
	}
	if cfg.Storage.EquityCSV != "" {
		if err := store.WriteEquityCurveCSV(cfg.Storage.EquityCSV, res.EquityCurve); err != nil {
			log.Fatalf("failed to write equity curve CSV: %v", err)
		}
	}
	if cfg.Storage.TradesCSV != "" {
		if err := store.WriteTradesCSV(cfg.Storage.TradesCSV, res.Trades); err != nil {
			log.Fatalf("failed to write trades CSV: %v", err)
		}
	}

	logger.Info("backtest finished",
		"total_return", res.Metrics.TotalReturn,
		"max_drawdown", res.Metrics.MaxDrawdown,
		"sharpe", res.Metrics.SharpeRatio,
		"trades", res.Metrics.TotalTrades,
		"round_trips", res.Metrics.RoundTrips,
		"win_rate", res.Metrics.WinRate,
	)
}
