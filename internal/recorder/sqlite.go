package recorder

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	sqlStore
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{sqlStore{db: db}}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	return r.exec([]string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			job         TEXT NOT NULL,
			source      TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			instruments INTEGER,
			succeeded   INTEGER,
			failed      INTEGER,
			results     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_job_started ON runs(job, started_at)`,

		`CREATE TABLE IF NOT EXISTS trade_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			instrument_key TEXT,
			list           TEXT,
			date           TEXT NOT NULL,
			action         TEXT NOT NULL,
			price          REAL,
			rsi            REAL,
			ratio          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trade_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_date ON trade_events(symbol, date)`,

		`CREATE TABLE IF NOT EXISTS breakout_reports (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			instrument_key TEXT,
			list           TEXT,
			as_of          INTEGER NOT NULL,
			low_date       TEXT,
			low_price      REAL,
			old_gtt        REAL,
			new_gtt        REAL,
			close          REAL,
			pct_diff       REAL,
			flag           TEXT,
			trigger_date   TEXT,
			trigger_price  REAL,
			pnl_pct        REAL,
			boh_eligible   INTEGER,
			high_52w       REAL,
			high_52w_date  TEXT,
			low_52w        REAL,
			low_52w_date   TEXT,
			daily_rsi      REAL,
			weekly_rsi     REAL,
			monthly_rsi    REAL,
			daily_adx      REAL,
			weekly_adx     REAL,
			monthly_adx    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breakout_run ON breakout_reports(run_id)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT,
			instrument_key TEXT,
			kind           TEXT,
			message        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id)`,
	})
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
