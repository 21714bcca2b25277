package model

import (
	"fmt"
	"math"
	"time"
)

// OHLCV represents a single daily session.
type OHLCV struct {
	Time         time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
}

// Instrument identifies one symbol to evaluate.
type Instrument struct {
	Symbol        string // NSE trading symbol, e.g. "RELIANCE"
	InstrumentKey string // Upstox key, e.g. "NSE_EQ|INE002A01018"
	ISIN          string
	Name          string // company name, or the underlying index for ETFs
	List          string // source list label, e.g. "N50"
}

// PriceSeries holds the daily bars of one instrument in ascending time order.
// Callers own the series; nothing in the engine mutates it.
type PriceSeries struct {
	Instrument Instrument
	Bars       []OHLCV
	FetchedAt  time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. It panics on an empty series.
func (s *PriceSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// Closes returns the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the session highs in series order.
func (s *PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the session lows in series order.
func (s *PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Validate checks every bar for missing or malformed fields and that
// timestamps are unique and strictly increasing.
func (s *PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Time.IsZero() {
			return &BarError{Index: i, Field: "timestamp", Reason: "is zero"}
		}
		for _, f := range []struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
				return &BarError{Index: i, Field: f.name, Reason: fmt.Sprintf("must be positive, got %v", f.v)}
			}
		}
		if b.Volume < 0 || math.IsNaN(b.Volume) {
			return &BarError{Index: i, Field: "volume", Reason: fmt.Sprintf("must be non-negative, got %v", b.Volume)}
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return &BarError{Index: i, Field: "timestamp", Reason: "not after previous bar"}
		}
	}
	return nil
}
