package store

import (
	"context"
	"database/sql"
	"fmt"

	"attsim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultWriter = (*SQLiteStore)(nil)

// SQLiteStore persists run outputs (equity curve and trade ledger) in a
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the output tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS equity_curve (
	date   TEXT NOT NULL PRIMARY KEY,
	equity REAL NOT NULL,
	signal TEXT NOT NULL,
	ret    REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	seq                INTEGER PRIMARY KEY AUTOINCREMENT,
	date               TEXT NOT NULL,
	action             TEXT NOT NULL,
	symbol             TEXT NOT NULL,
	qty                REAL NOT NULL,
	price              REAL NOT NULL,
	gross_value        REAL NOT NULL,
	cash_before        REAL NOT NULL,
	cash_after         REAL NOT NULL,
	position_after_qty REAL NOT NULL,
	day_signal         TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("migrating result schema: %w", err)
	}
	return nil
}

// SaveRun replaces any previously stored run with the given equity curve and
// trade ledger, inside a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, curve []domain.EquityPoint, trades []domain.TradeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM equity_curve`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
		return err
	}

	for _, p := range curve {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO equity_curve (date, equity, signal, ret) VALUES (?, ?, ?, ?)`,
			p.Date.Format(DateLayout), p.Equity, string(p.Signal), p.Return)
		if err != nil {
			return fmt.Errorf("inserting equity point: %w", err)
		}
	}
	for _, t := range trades {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trades (date, action, symbol, qty, price, gross_value,
				cash_before, cash_after, position_after_qty, day_signal)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Date.Format(DateLayout), string(t.Action), t.Symbol, t.Qty, t.Price,
			t.Gross, t.CashBefore, t.CashAfter, t.PosAfter, string(t.DaySignal))
		if err != nil {
			return fmt.Errorf("inserting trade: %w", err)
		}
	}

	return tx.Commit()
}

// ReadEquityCurve returns the stored equity curve in ascending date order.
func (s *SQLiteStore) ReadEquityCurve(ctx context.Context) ([]domain.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, equity, signal, ret FROM equity_curve ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var curve []domain.EquityPoint
	for rows.Next() {
		var dateStr, sigStr string
		var p domain.EquityPoint
		if err := rows.Scan(&dateStr, &p.Equity, &sigStr, &p.Return); err != nil {
			return nil, err
		}
		if p.Date, err = parseDate(dateStr); err != nil {
			return nil, err
		}
		p.Signal = domain.Signal(sigStr)
		curve = append(curve, p)
	}
	return curve, rows.Err()
}

// ReadTrades returns the stored trade ledger in execution order.
func (s *SQLiteStore) ReadTrades(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, action, symbol, qty, price, gross_value,
			cash_before, cash_after, position_after_qty, day_signal
		 FROM trades ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var dateStr, actStr, sigStr string
		var t domain.TradeRecord
		if err := rows.Scan(&dateStr, &actStr, &t.Symbol, &t.Qty, &t.Price,
			&t.Gross, &t.CashBefore, &t.CashAfter, &t.PosAfter, &sigStr); err != nil {
			return nil, err
		}
		if t.Date, err = parseDate(dateStr); err != nil {
			return nil, err
		}
		t.Action = domain.Action(actStr)
		t.DaySignal = domain.Signal(sigStr)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
