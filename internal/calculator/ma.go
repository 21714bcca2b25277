package calculator

import (
	"github.com/markcheno/go-talib"

	"NiftyScreener/internal/model"
)

// SMA returns the simple moving average of values over period, aligned with
// values. Entries before the window fills are not available.
func SMA(values []float64, period int) []model.Float {
	out := make([]model.Float, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	if period == 1 {
		for i, v := range values {
			out[i] = model.Some(v)
		}
		return out
	}
	sma := talib.Sma(values, period)
	for i := period - 1; i < len(values); i++ {
		out[i] = model.Some(sma[i])
	}
	return out
}

// Ratio divides each price by the matching average. The result is not
// available wherever the average is not.
func Ratio(prices []float64, avg []model.Float) []model.Float {
	out := make([]model.Float, len(prices))
	for i, p := range prices {
		if i >= len(avg) || !avg[i].Valid || avg[i].Float64 == 0 {
			continue
		}
		out[i] = model.Some(p / avg[i].Float64)
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
