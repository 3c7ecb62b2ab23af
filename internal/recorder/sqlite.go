package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/model"
)

// SQLiteRecorder persists scan results to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "sqlite").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_rows (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			ticker     TEXT NOT NULL,
			bar_time   INTEGER NOT NULL,
			close      REAL,
			rsi        REAL,
			trend_side INTEGER,
			signal     INTEGER,
			confidence REAL,
			kept       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_run ON signal_rows(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ticker ON signal_rows(ticker, bar_time)`,

		`CREATE TABLE IF NOT EXISTS run_log (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			date              TEXT,
			start_time        INTEGER,
			end_time          INTEGER,
			status            TEXT,
			tickers_processed INTEGER,
			tickers_skipped   INTEGER,
			tickers_error     INTEGER,
			notes             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_log_run ON run_log(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an undefined indicator value to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func (r *SQLiteRecorder) RecordSignals(runID string, rows, kept []model.ScoredRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO signal_rows
		(run_id, ticker, bar_time, close, rsi, trend_side, signal, confidence, kept)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	accepted := keptSet(kept)
	for _, row := range rows {
		if _, err := stmt.Exec(runID, row.Ticker, row.Time.Unix(), row.Close, nullable(row.RSI),
			int(row.TrendSide), int(row.Signal), nullable(row.Confidence), accepted[row.Ticker]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", row.Ticker, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRun(run *model.RunLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO run_log
		(run_id, date, start_time, end_time, status, tickers_processed, tickers_skipped, tickers_error, notes)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Date, run.StartTime.Unix(), run.EndTime.Unix(), run.Status,
		run.TickersProcessed, run.TickersSkipped, run.TickersError, run.Notes,
	)
	return err
}

// LastRun returns the most recent run log entry, or nil when none exists.
func (r *SQLiteRecorder) LastRun() (*model.RunLog, error) {
	var (
		run        model.RunLog
		start, end int64
	)
	err := r.db.QueryRow(`SELECT run_id, date, start_time, end_time, status,
		tickers_processed, tickers_skipped, tickers_error, notes
		FROM run_log ORDER BY id DESC LIMIT 1`).Scan(
		&run.RunID, &run.Date, &start, &end, &run.Status,
		&run.TickersProcessed, &run.TickersSkipped, &run.TickersError, &run.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.StartTime = time.Unix(start, 0)
	run.EndTime = time.Unix(end, 0)
	return &run, nil
}

// KeptSignals returns the trades accepted in a run, most confident first.
func (r *SQLiteRecorder) KeptSignals(runID string) ([]model.ScoredRow, error) {
	rows, err := r.db.Query(`SELECT ticker, bar_time, close, rsi, trend_side, signal, confidence
		FROM signal_rows WHERE run_id = ? AND kept = 1 ORDER BY confidence DESC, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query kept signals: %w", err)
	}
	defer rows.Close()

	var out []model.ScoredRow
	for rows.Next() {
		var (
			s            model.ScoredRow
			barTime      int64
			rsi, conf    sql.NullFloat64
			side, signal int
		)
		if err := rows.Scan(&s.Ticker, &barTime, &s.Close, &rsi, &side, &signal, &conf); err != nil {
			return nil, err
		}
		s.Time = time.Unix(barTime, 0).UTC()
		s.RSI = orNaN(rsi)
		s.Confidence = orNaN(conf)
		s.TrendSide = model.Side(side)
		s.Signal = model.Signal(signal)
		out = append(out, s)
	}
	return out, rows.Err()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
