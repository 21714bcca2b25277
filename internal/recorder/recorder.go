package recorder

import (
	"time"

	"NiftyScreener/internal/model"
)

// Job names stored with each run.
const (
	JobTrades   = "trades"
	JobBreakout = "breakout"
)

// Run summarises one batch execution.
type Run struct {
	ID          string
	Job         string
	Source      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Instruments int
	Succeeded   int
	Failed      int
	Results     int // trade events or breakout reports
}

// FailureEvent records one instrument that could not be evaluated.
type FailureEvent struct {
	Symbol        string
	InstrumentKey string
	Kind          string // see model.FailureKind
	Message       string
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(run *Run) error
	RecordTrades(runID string, events []model.TradeEvent) error
	RecordBreakouts(runID string, reports []model.BreakoutReport) error
	RecordFailure(runID string, f *FailureEvent) error
	// LastRun returns the most recent run of job, or nil when there is none.
	LastRun(job string) (*Run, error)
	Close() error
}
