package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"NiftyScreener/internal/model"
)

// sqlStore holds the statements shared by the SQLite and PostgreSQL
// recorders. Queries are written with "?" placeholders and rebound for
// drivers that number them.
type sqlStore struct {
	db       *sql.DB
	mu       sync.Mutex
	numbered bool
}

func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	return rebind(query)
}

// rebind rewrites "?" placeholders as $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dateValue(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func (s *sqlStore) RecordRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.q(`INSERT INTO runs
		(id, job, source, started_at, finished_at, instruments, succeeded, failed, results)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		run.ID, run.Job, run.Source, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Instruments, run.Succeeded, run.Failed, run.Results,
	)
	return err
}

func (s *sqlStore) RecordTrades(runID string, events []model.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(s.q(`INSERT INTO trade_events
		(run_id, symbol, instrument_key, list, date, action, price, rsi, ratio)
		VALUES (?,?,?,?,?,?,?,?,?)`), func(stmt *sql.Stmt) error {
		for _, e := range events {
			if _, err := stmt.Exec(runID, e.Instrument.Symbol, e.Instrument.InstrumentKey, e.Instrument.List,
				dateValue(e.Time), string(e.Action), e.Price, e.RSI, e.Ratio); err != nil {
				return fmt.Errorf("insert trade %s %s: %w", e.Instrument.Symbol, e.Action, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) RecordBreakouts(runID string, reports []model.BreakoutReport) error {
	if len(reports) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(s.q(`INSERT INTO breakout_reports
		(run_id, symbol, instrument_key, list, as_of, low_date, low_price, old_gtt, new_gtt, close,
		 pct_diff, flag, trigger_date, trigger_price, pnl_pct, boh_eligible,
		 high_52w, high_52w_date, low_52w, low_52w_date,
		 daily_rsi, weekly_rsi, monthly_rsi, daily_adx, weekly_adx, monthly_adx)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`), func(stmt *sql.Stmt) error {
		for _, r := range reports {
			if _, err := stmt.Exec(runID, r.Instrument.Symbol, r.Instrument.InstrumentKey, r.Instrument.List,
				r.AsOf.Unix(), dateValue(r.LowDate), r.LowPrice, r.OldGTT, r.NewGTT, r.Close,
				r.PercentDiff, string(r.Flag), dateValue(r.TriggerDate), r.TriggerPrice, r.PnLPercent, r.BOHEligible,
				r.High52w, dateValue(r.High52wDate), r.Low52w, dateValue(r.Low52wDate),
				r.DailyRSI, r.WeeklyRSI, r.MonthlyRSI, r.DailyADX, r.WeeklyADX, r.MonthlyADX,
			); err != nil {
				return fmt.Errorf("insert breakout %s: %w", r.Instrument.Symbol, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) RecordFailure(runID string, f *FailureEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.q(`INSERT INTO failures
		(run_id, timestamp, symbol, instrument_key, kind, message)
		VALUES (?,?,?,?,?,?)`),
		runID, time.Now().Unix(), f.Symbol, f.InstrumentKey, f.Kind, f.Message,
	)
	return err
}

func (s *sqlStore) LastRun(job string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		run             Run
		started, finish int64
	)
	err := s.db.QueryRow(s.q(`SELECT id, job, source, started_at, finished_at, instruments, succeeded, failed, results
		FROM runs WHERE job = ? ORDER BY started_at DESC LIMIT 1`), job).
		Scan(&run.ID, &run.Job, &run.Source, &started, &finish, &run.Instruments, &run.Succeeded, &run.Failed, &run.Results)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finish, 0)
	return &run, nil
}

func (s *sqlStore) inTx(query string, fn func(*sql.Stmt) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	if err := fn(stmt); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) exec(stmts []string) error {
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			head := q
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}
