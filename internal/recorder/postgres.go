package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRecorder persists run history to PostgreSQL.
type PostgresRecorder struct {
	sqlStore
}

// NewPostgresRecorder connects to dsn, pings the server and runs migrations.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{sqlStore{db: db, numbered: true}}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("[INFO] postgres recorder opened")
	return r, nil
}

func (r *PostgresRecorder) migrate() error {
	return r.exec([]string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			job         TEXT NOT NULL,
			source      TEXT,
			started_at  BIGINT NOT NULL,
			finished_at BIGINT,
			instruments INTEGER,
			succeeded   INTEGER,
			failed      INTEGER,
			results     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_job_started ON runs(job, started_at)`,

		`CREATE TABLE IF NOT EXISTS trade_events (
			id             BIGSERIAL PRIMARY KEY,
			run_id         TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			instrument_key TEXT,
			list           TEXT,
			date           DATE NOT NULL,
			action         TEXT NOT NULL,
			price          DOUBLE PRECISION,
			rsi            DOUBLE PRECISION,
			ratio          DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trade_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_date ON trade_events(symbol, date)`,

		`CREATE TABLE IF NOT EXISTS breakout_reports (
			id             BIGSERIAL PRIMARY KEY,
			run_id         TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			instrument_key TEXT,
			list           TEXT,
			as_of          BIGINT NOT NULL,
			low_date       DATE,
			low_price      DOUBLE PRECISION,
			old_gtt        DOUBLE PRECISION,
			new_gtt        DOUBLE PRECISION,
			close          DOUBLE PRECISION,
			pct_diff       DOUBLE PRECISION,
			flag           TEXT,
			trigger_date   DATE,
			trigger_price  DOUBLE PRECISION,
			pnl_pct        DOUBLE PRECISION,
			boh_eligible   BOOLEAN,
			high_52w       DOUBLE PRECISION,
			high_52w_date  DATE,
			low_52w        DOUBLE PRECISION,
			low_52w_date   DATE,
			daily_rsi      DOUBLE PRECISION,
			weekly_rsi     DOUBLE PRECISION,
			monthly_rsi    DOUBLE PRECISION,
			daily_adx      DOUBLE PRECISION,
			weekly_adx     DOUBLE PRECISION,
			monthly_adx    DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breakout_run ON breakout_reports(run_id)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id             BIGSERIAL PRIMARY KEY,
			run_id         TEXT NOT NULL,
			timestamp      BIGINT NOT NULL,
			symbol         TEXT,
			instrument_key TEXT,
			kind           TEXT,
			message        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id)`,
	})
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	return r.db.Close()
}
