package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the series is too short to derive anything.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingField means an input bar is malformed.
	ErrMissingField = errors.New("missing field")
	// ErrNoData is returned by market-data sources that answered with no candles.
	ErrNoData = fmt.Errorf("no data returned: %w", ErrInsufficientData)
	// ErrUpstreamFetch wraps transport, status and decoding failures of collaborators.
	ErrUpstreamFetch = errors.New("upstream fetch failure")
)

// BarError describes a malformed bar. It matches ErrMissingField.
type BarError struct {
	Index  int
	Field  string
	Reason string
}

func (e *BarError) Error() string {
	return fmt.Sprintf("bar %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *BarError) Unwrap() error { return ErrMissingField }

// FailureKind maps an evaluation error to a short label for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrUpstreamFetch):
		return "upstream"
	default:
		return "other"
	}
}
