package model

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Float is a float64 that may be "not available", in the manner of
// sql.NullFloat64. A missing value is never treated as zero: every
// comparison against it is false.
type Float struct {
	Float64 float64
	Valid   bool
}

// Some wraps v. NaN and infinities become not available.
func Some(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Float64: v, Valid: true}
}

// None is the not-available value.
var None = Float{}

// Lt reports v < x.
func (f Float) Lt(x float64) bool { return f.Valid && f.Float64 < x }

// Gt reports v > x.
func (f Float) Gt(x float64) bool { return f.Valid && f.Float64 > x }

// Equal reports whether both values are available and equal.
func (f Float) Equal(o Float) bool { return f.Valid && o.Valid && f.Float64 == o.Float64 }

// Ptr returns nil when the value is not available.
func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// Format2 renders two decimals, or "" when not available.
func (f Float) Format2() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', 2, 64)
}

func (f Float) String() string {
	if !f.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

// Value implements driver.Valuer so a missing value is stored as NULL.
func (f Float) Value() (driver.Value, error) {
	if !f.Valid {
		return nil, nil
	}
	return f.Float64, nil
}

// MarshalJSON renders a missing value as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Float64)
}

// IndicatorFrame is aligned 1:1 with the PriceSeries it was computed from.
// Entry i depends only on bars [0..i].
type IndicatorFrame struct {
	Time                []time.Time
	LastTradedPrice     []float64
	MA                  map[int][]Float // keyed by window length
	RatioWindow         int
	Ratio               []Float
	RSI                 []Float
	ADX                 []Float // nil when ADX was not requested
	RangeWindow         int
	RollingLow          []Float
	RollingHigh         []Float
	PreviousRollingHigh []Float
}

// IndicatorRow is one bar's worth of an IndicatorFrame.
type IndicatorRow struct {
	Index               int
	Time                time.Time
	LastTradedPrice     float64
	Ratio               Float
	RSI                 Float
	ADX                 Float
	RollingLow          Float
	RollingHigh         Float
	PreviousRollingHigh Float
}

// Len returns the number of rows.
func (f *IndicatorFrame) Len() int { return len(f.LastTradedPrice) }

// Row returns the values at index i.
func (f *IndicatorFrame) Row(i int) IndicatorRow {
	r := IndicatorRow{
		Index:               i,
		Time:                f.Time[i],
		LastTradedPrice:     f.LastTradedPrice[i],
		Ratio:               f.Ratio[i],
		RSI:                 f.RSI[i],
		RollingLow:          f.RollingLow[i],
		RollingHigh:         f.RollingHigh[i],
		PreviousRollingHigh: f.PreviousRollingHigh[i],
	}
	if f.ADX != nil {
		r.ADX = f.ADX[i]
	}
	return r
}
