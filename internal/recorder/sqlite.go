package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"Buffetology/internal/model"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report readers do not block the scheduler.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_runs (
			id          TEXT PRIMARY KEY,
			trigger_type TEXT NOT NULL,
			provider    TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			tickers     INTEGER NOT NULL,
			scored      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON screen_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS screen_results (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES screen_runs(id),
			rank           INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			quality_score  REAL,
			value_score    REAL,
			growth_score   REAL,
			overall_score  REAL,
			recommendation TEXT,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screen_results(run_id, rank)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON screen_results(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run and its ranked results in one transaction.
func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scored := 0
	for _, res := range run.Results {
		if res.Recommendation.Scored() {
			scored++
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO screen_runs
		(id, trigger_type, provider, started_at, finished_at, tickers, scored)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, string(run.Trigger), run.Provider,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		len(run.Results), scored,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO screen_results
		(run_id, rank, ticker, quality_score, value_score, growth_score, overall_score, recommendation, error)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, res := range run.Results {
		if _, err := stmt.Exec(run.ID, i+1, res.Ticker,
			res.QualityScore, res.ValueScore, res.GrowthScore, res.OverallScore,
			string(res.Recommendation), res.Err,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.log.Debug().Str("run_id", run.ID).Int("results", len(run.Results)).Msg("run recorded")
	return nil
}

// LatestRun loads the most recently started run with its results in rank order.
func (r *SQLiteRecorder) LatestRun() (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run               Run
		trigger           string
		started, finished int64
	)
	err := r.db.QueryRow(`SELECT id, trigger_type, provider, started_at, finished_at
		FROM screen_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).
		Scan(&run.ID, &trigger, &run.Provider, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	run.Trigger = model.TriggerType(trigger)
	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()

	rows, err := r.db.Query(`SELECT ticker, quality_score, value_score, growth_score, overall_score, recommendation, error
		FROM screen_results WHERE run_id = ? ORDER BY rank`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res  model.AnalysisResult
			rec  string
			errS sql.NullString
		)
		if err := rows.Scan(&res.Ticker, &res.QualityScore, &res.ValueScore, &res.GrowthScore,
			&res.OverallScore, &rec, &errS); err != nil {
			return nil, err
		}
		res.Recommendation = model.Recommendation(rec)
		res.Err = errS.String
		run.Results = append(run.Results, res)
	}
	return &run, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
