// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/scanner"
	"github.com/rfarrakhov/chainarb/internal/storage"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	id               TEXT PRIMARY KEY,
	ts               TEXT NOT NULL,
	network          TEXT NOT NULL,
	kind             TEXT NOT NULL,
	pair             TEXT NOT NULL,
	buy_venue        TEXT,
	sell_venue       TEXT,
	venue            TEXT,
	path             TEXT,
	amount_in        REAL,
	gross_profit_pct REAL,
	gas_cost_pct     REAL,
	slippage_pct     REAL,
	net_profit_pct   REAL,
	viable           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_opportunities_network_ts ON opportunities(network, ts);

CREATE TABLE IF NOT EXISTS outcomes (
	id                   TEXT PRIMARY KEY,
	ts                   TEXT NOT NULL,
	network              TEXT NOT NULL,
	kind                 TEXT NOT NULL,
	pair                 TEXT NOT NULL,
	buy_venue            TEXT,
	sell_venue           TEXT,
	expected_profit_pct  REAL,
	slippage_applied_pct REAL,
	gas_cost_pct         REAL,
	realized_profit_pct  REAL,
	realized_profit_usd  REAL,
	success              INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outcomes_network_ts ON outcomes(network, ts);
`

// DB is a sqlite-backed store. Concurrent readers are fine under WAL;
// writes are serialized by the driver.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ storage.Store = (*DB)(nil)

// New opens (or creates) the database at path and applies the schema.
func New(path string, log *logger.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked while the scan loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}

	return &DB{db: db, logger: log.WithComponent("storage")}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveOpportunity upserts one opportunity row.
func (d *DB) SaveOpportunity(ctx context.Context, opp scanner.Opportunity) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO opportunities
		 (id, ts, network, kind, pair, buy_venue, sell_venue, venue, path,
		  amount_in, gross_profit_pct, gas_cost_pct, slippage_pct, net_profit_pct, viable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID,
		opp.Timestamp.UTC().Format(time.RFC3339Nano),
		opp.Network,
		string(opp.Kind),
		opp.Pair,
		opp.BuyVenue,
		opp.SellVenue,
		opp.Venue,
		strings.Join(opp.Path, "->"),
		opp.AmountIn,
		opp.GrossProfitPct,
		opp.GasCostPct,
		opp.SlippagePct,
		opp.NetProfitPct,
		boolToInt(opp.Viable),
	)
	if err != nil {
		return fmt.Errorf("failed to save opportunity: %w", err)
	}
	return nil
}

// ListOpportunities returns the most recent opportunities, newest first.
// Empty network returns rows for every chain.
func (d *DB) ListOpportunities(ctx context.Context, network string, limit int) ([]scanner.Opportunity, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, ts, network, kind, pair, buy_venue, sell_venue, venue, path,
	                 amount_in, gross_profit_pct, gas_cost_pct, slippage_pct, net_profit_pct, viable
	          FROM opportunities`
	args := []interface{}{}
	if network != "" {
		query += " WHERE network = ?"
		args = append(args, network)
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var result []scanner.Opportunity
	for rows.Next() {
		var (
			opp    scanner.Opportunity
			ts     string
			kind   string
			path   string
			viable int
		)
		if err := rows.Scan(&opp.ID, &ts, &opp.Network, &kind, &opp.Pair,
			&opp.BuyVenue, &opp.SellVenue, &opp.Venue, &path,
			&opp.AmountIn, &opp.GrossProfitPct, &opp.GasCostPct,
			&opp.SlippagePct, &opp.NetProfitPct, &viable); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opp.Kind = scanner.Kind(kind)
		opp.Timestamp = parseTime(ts)
		if path != "" {
			opp.Path = strings.Split(path, "->")
		}
		opp.Viable = viable != 0
		result = append(result, opp)
	}
	return result, rows.Err()
}

// SaveOutcome inserts one simulated trade.
func (d *DB) SaveOutcome(ctx context.Context, outcome backtest.TradeOutcome) error {
	_, err := d.db.ExecContext(ctx, outcomeInsertSQL, outcomeArgs(outcome)...)
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

// SaveOutcomes inserts a batch of outcomes in one transaction.
func (d *DB) SaveOutcomes(ctx context.Context, outcomes []backtest.TradeOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, outcomeInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, outcome := range outcomes {
		if _, err := stmt.ExecContext(ctx, outcomeArgs(outcome)...); err != nil {
			return fmt.Errorf("failed to save outcome %s: %w", outcome.ID, err)
		}
	}
	return tx.Commit()
}

// ListOutcomes returns the most recent outcomes, newest first. Empty network
// returns rows for every chain.
func (d *DB) ListOutcomes(ctx context.Context, network string, limit int) ([]backtest.TradeOutcome, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, ts, network, kind, pair, buy_venue, sell_venue,
	                 expected_profit_pct, slippage_applied_pct, gas_cost_pct,
	                 realized_profit_pct, realized_profit_usd, success
	          FROM outcomes`
	args := []interface{}{}
	if network != "" {
		query += " WHERE network = ?"
		args = append(args, network)
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var result []backtest.TradeOutcome
	for rows.Next() {
		var (
			o       backtest.TradeOutcome
			ts      string
			kind    string
			success int
		)
		if err := rows.Scan(&o.ID, &ts, &o.Opportunity.Network, &kind, &o.Opportunity.Pair,
			&o.Opportunity.BuyVenue, &o.Opportunity.SellVenue,
			&o.ExpectedProfitPct, &o.SlippageAppliedPct, &o.GasCostPct,
			&o.RealizedProfitPct, &o.RealizedProfitUSD, &success); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Opportunity.Kind = scanner.Kind(kind)
		o.Timestamp = parseTime(ts)
		o.Success = success != 0
		result = append(result, o)
	}
	return result, rows.Err()
}

// CountOutcomes reports the total number of stored outcomes.
func (d *DB) CountOutcomes(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM outcomes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count outcomes: %w", err)
	}
	return count, nil
}

const outcomeInsertSQL = `INSERT OR REPLACE INTO outcomes
	(id, ts, network, kind, pair, buy_venue, sell_venue,
	 expected_profit_pct, slippage_applied_pct, gas_cost_pct,
	 realized_profit_pct, realized_profit_usd, success)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func outcomeArgs(o backtest.TradeOutcome) []interface{} {
	return []interface{}{
		o.ID,
		o.Timestamp.UTC().Format(time.RFC3339Nano),
		o.Opportunity.Network,
		string(o.Opportunity.Kind),
		o.Opportunity.Pair,
		o.Opportunity.BuyVenue,
		o.Opportunity.SellVenue,
		o.ExpectedProfitPct,
		o.SlippageAppliedPct,
		o.GasCostPct,
		o.RealizedProfitPct,
		o.RealizedProfitUSD,
		boolToInt(o.Success),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
