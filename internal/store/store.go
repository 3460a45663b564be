// Package store persists finished consensus runs and backtest results to
// Postgres. Persistence is optional: when no database is configured the
// pipeline runs without a store.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/database"
	"github.com/triadlabs/triad/pkg/logger"
)

// Store wraps the database pool with run persistence.
type Store struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a store over an open database.
func New(db *database.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

const schema = `
CREATE TABLE IF NOT EXISTS consensus_runs (
	id          BIGSERIAL PRIMARY KEY,
	as_of       DATE        NOT NULL,
	tickers     TEXT[]      NOT NULL,
	elapsed_ms  BIGINT      NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS consensus_decisions (
	run_id        BIGINT NOT NULL REFERENCES consensus_runs(id) ON DELETE CASCADE,
	ticker        TEXT   NOT NULL,
	decision      TEXT   NOT NULL,
	justification TEXT   NOT NULL,
	PRIMARY KEY (run_id, ticker)
);

CREATE TABLE IF NOT EXISTS backtest_results (
	run_id                   BIGINT PRIMARY KEY REFERENCES consensus_runs(id) ON DELETE CASCADE,
	window_end               DATE             NOT NULL,
	buy_tickers              TEXT[]           NOT NULL,
	buy_forward_return       DOUBLE PRECISION NOT NULL,
	benchmark_forward_return DOUBLE PRECISION NOT NULL,
	buy_sharpe               DOUBLE PRECISION NOT NULL,
	benchmark_sharpe         DOUBLE PRECISION NOT NULL,
	created_at               TIMESTAMPTZ      NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun stores one consensus run and its per-ticker decisions, returning
// the run id.
func (s *Store) SaveRun(ctx context.Context, asOf time.Time, tickers []string, elapsed time.Duration, rec *contracts.Recommendation) (int64, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO consensus_runs (as_of, tickers, elapsed_ms) VALUES ($1, $2, $3) RETURNING id`,
		asOf, tickers, elapsed.Milliseconds(),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for _, ticker := range tickers {
		decision, _ := rec.DecisionFor(ticker)
		justification, _ := rec.JustificationFor(ticker)
		_, err = tx.Exec(ctx,
			`INSERT INTO consensus_decisions (run_id, ticker, decision, justification) VALUES ($1, $2, $3, $4)`,
			runID, ticker, string(decision), justification,
		)
		if err != nil {
			return 0, fmt.Errorf("insert decision for %s: %w", ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit run tx: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"tickers": len(tickers),
	}).Info("consensus run saved")

	return runID, nil
}

// SaveBacktest stores the forward-test metrics for a saved run.
func (s *Store) SaveBacktest(ctx context.Context, runID int64, result *contracts.BacktestResult) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO backtest_results
			(run_id, window_end, buy_tickers, buy_forward_return, benchmark_forward_return, buy_sharpe, benchmark_sharpe)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (run_id) DO UPDATE SET
			window_end = EXCLUDED.window_end,
			buy_tickers = EXCLUDED.buy_tickers,
			buy_forward_return = EXCLUDED.buy_forward_return,
			benchmark_forward_return = EXCLUDED.benchmark_forward_return,
			buy_sharpe = EXCLUDED.buy_sharpe,
			benchmark_sharpe = EXCLUDED.benchmark_sharpe`,
		runID, result.WindowEnd, result.BuyTickers,
		result.BuyForwardReturn, result.BenchmarkForwardReturn,
		result.BuySharpe, result.BenchmarkSharpe,
	)
	if err != nil {
		return fmt.Errorf("insert backtest for run %d: %w", runID, err)
	}
	return nil
}

// RunSummary is one persisted run row joined with its backtest, if any.
type RunSummary struct {
	ID               int64     `json:"id"`
	AsOf             time.Time `json:"as_of"`
	Tickers          []string  `json:"tickers"`
	CreatedAt        time.Time `json:"created_at"`
	BuyForwardReturn *float64  `json:"buy_forward_return,omitempty"`
	BuySharpe        *float64  `json:"buy_sharpe,omitempty"`
}

// RecentRuns lists the newest persisted runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT r.id, r.as_of, r.tickers, r.created_at, b.buy_forward_return, b.buy_sharpe
		 FROM consensus_runs r
		 LEFT JOIN backtest_results b ON b.run_id = r.id
		 ORDER BY r.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.AsOf, &run.Tickers, &run.CreatedAt, &run.BuyForwardReturn, &run.BuySharpe); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
