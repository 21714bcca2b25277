package calculator

import (
	"time"

	"NiftyScreener/internal/model"
)

// ResampleWeekly converts daily bars into ISO-week bars (Mon-Sun), in the
// bars' own location.
func ResampleWeekly(daily []model.OHLCV) []model.OHLCV {
	return resample(daily, func(t time.Time) int {
		y, w := t.ISOWeek()
		return y*100 + w
	})
}

// ResampleMonthly converts daily bars into calendar-month bars.
func ResampleMonthly(daily []model.OHLCV) []model.OHLCV {
	return resample(daily, func(t time.Time) int {
		return t.Year()*100 + int(t.Month())
	})
}

// resample folds consecutive bars sharing a bucket key: first open, max
// high, min low, last close, summed volume. The bucket keeps the time of its
// first bar.
func resample(daily []model.OHLCV, key func(time.Time) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := key(cur.Time)
	for _, d := range daily[1:] {
		k := key(d.Time)
		if k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
		cur.OpenInterest = d.OpenInterest
	}
	return append(out, cur)
}
