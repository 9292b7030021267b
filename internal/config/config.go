package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for an attsim run.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
}

// Storage holds paths and formats for table loading and output persistence.
type Storage struct {
	// Format selects the table source: "csv" or "parquet".
	Format     string `yaml:"format"`
	DataDir    string `yaml:"data_dir"` // parquet table root
	PricesCSV  string `yaml:"prices_csv"`
	FactorsCSV string `yaml:"factors_csv"`
	SQLitePath string `yaml:"sqlite_path"`
	EquityCSV  string `yaml:"equity_csv"` // optional CSV mirror of the equity curve
	TradesCSV  string `yaml:"trades_csv"` // optional CSV mirror of the trade ledger
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest holds the per-run simulation parameters.
type Backtest struct {
	RefSymbol       string  `yaml:"ref_symbol"`
	TargetPositions int     `yaml:"target_positions"`
	Window          int     `yaml:"window"`      // regression window length (N)
	HistoryCap      int     `yaml:"history_cap"` // slope history capacity (M)
	Threshold       float64 `yaml:"threshold"`   // score threshold
	InitialCash     float64 `yaml:"initial_cash"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration: CSV tables in the working
// directory and the standard strategy parameters (N=22, M=545,
// threshold=0.7, cash 1,000,000).
func Default() *Config {
	return &Config{
		Storage: Storage{
			Format:     "csv",
			DataDir:    "data",
			PricesCSV:  "prices.csv",
			FactorsCSV: "factors.csv",
			SQLitePath: "attsim.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Backtest: Backtest{
			TargetPositions: 3,
			Window:          22,
			HistoryCap:      545,
			Threshold:       0.7,
			InitialCash:     1_000_000,
		},
	}
}

// Load reads the YAML configuration file at the given path over the
// defaults and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PRICES_CSV"); v != "" {
		cfg.Storage.PricesCSV = v
	}
	if v := os.Getenv("FACTORS_CSV"); v != "" {
		cfg.Storage.FactorsCSV = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("REF_SYMBOL"); v != "" {
		cfg.Backtest.RefSymbol = v
	}
	if v := os.Getenv("TARGET_POSITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.TargetPositions = n
		}
	}
	if v := os.Getenv("INITIAL_CASH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCash = f
		}
	}
}
