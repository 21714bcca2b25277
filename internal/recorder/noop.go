package recorder

import "NiftyScreener/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *Run) error                                   { return nil }
func (n *NoopRecorder) RecordTrades(_ string, _ []model.TradeEvent) error        { return nil }
func (n *NoopRecorder) RecordBreakouts(_ string, _ []model.BreakoutReport) error { return nil }
func (n *NoopRecorder) RecordFailure(_ string, _ *FailureEvent) error            { return nil }
func (n *NoopRecorder) LastRun(_ string) (*Run, error)                           { return nil, nil }
func (n *NoopRecorder) Close() error                                             { return nil }
