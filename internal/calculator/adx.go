package calculator

import (
	"github.com/markcheno/go-talib"

	"NiftyScreener/internal/model"
)

// ADX computes Wilder's Average Directional Index. The first value appears
// at index 2*period-1.
func ADX(highs, lows, closes []float64, period int) []model.Float {
	n := len(closes)
	out := make([]model.Float, n)
	if period < 2 || len(highs) != n || len(lows) != n || n < 2*period {
		return out
	}
	adx := talib.Adx(highs, lows, closes, period)
	for i := 2*period - 1; i < n; i++ {
		out[i] = model.Some(adx[i])
	}
	return out
}
