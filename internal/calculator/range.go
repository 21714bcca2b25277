package calculator

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// RollingHigh returns the highest value of the trailing window ending at
// each index, inclusive.
func RollingHigh(values []float64, window int) []model.Float {
	return rolling(values, window, talib.Max)
}

// RollingLow returns the lowest value of the trailing window ending at each
// index, inclusive.
func RollingLow(values []float64, window int) []model.Float {
	return rolling(values, window, talib.Min)
}

func rolling(values []float64, window int, fn func([]float64, int) []float64) []model.Float {
	out := make([]model.Float, len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	if window == 1 {
		for i, v := range values {
			out[i] = model.Some(v)
		}
		return out
	}
	res := fn(values, window)
	for i := window - 1; i < len(values); i++ {
		out[i] = model.Some(res[i])
	}
	return out
}

// Shift moves values forward by n positions: out[i] = in[i-n].
func Shift(in []model.Float, n int) []model.Float {
	out := make([]model.Float, len(in))
	for i := n; i < len(in); i++ {
		out[i] = in[i-n]
	}
	return out
}

// RangeExtremes is the high/low of a lookback window and the first date each
// was reached.
type RangeExtremes struct {
	High     float64
	HighDate time.Time
	Low      float64
	LowDate  time.Time
}

// FiftyTwoWeekRange scans bars dated within 365 days before asOf. The
// cutoff is the IST calendar day, so the time of day asOf carries does not
// move the window.
func FiftyTwoWeekRange(bars []model.OHLCV, asOf time.Time) (RangeExtremes, error) {
	cutoff := markethours.Date(asOf).AddDate(0, 0, -365)
	var ext RangeExtremes
	found := false
	for _, b := range bars {
		if b.Time.Before(cutoff) || b.Time.After(asOf) {
			continue
		}
		if !found || b.High > ext.High {
			ext.High, ext.HighDate = b.High, b.Time
		}
		if !found || b.Low < ext.Low {
			ext.Low, ext.LowDate = b.Low, b.Time
		}
		found = true
	}
	if !found {
		return RangeExtremes{}, fmt.Errorf("no bars since %s: %w", cutoff.Format("2006-01-02"), model.ErrInsufficientData)
	}
	return ext, nil
}
