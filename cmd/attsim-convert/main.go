// attsim-convert imports CSV price and factor tables into the Parquet
// layout used by the backtester's parquet storage format.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"attsim/internal/store"
)

func main() {
	pricesCSV := flag.String("prices", "prices.csv", "price table CSV to import")
	factorsCSV := flag.String("factors", "factors.csv", "factor table CSV to import")
	dataDir := flag.String("out", "data", "parquet data directory to write")
	flag.Parse()

	ctx := context.Background()

	src := store.NewCSVStore(*pricesCSV, *factorsCSV)
	dst := store.NewParquetStore(*dataDir)

	bars, err := src.ReadPrices(ctx)
	if err != nil {
		log.Fatalf("failed to read prices: %v", err)
	}
	if err := dst.WritePrices(ctx, bars); err != nil {
		log.Fatalf("failed to write prices: %v", err)
	}

	rows, err := src.ReadFactors(ctx)
	if err != nil {
		log.Fatalf("failed to read factors: %v", err)
	}
	if err := dst.WriteFactors(ctx, rows); err != nil {
		log.Fatalf("failed to write factors: %v", err)
	}

	fmt.Printf("imported %d price bars and %d factor rows into %s\n",
		len(bars), len(rows), *dataDir)
}
