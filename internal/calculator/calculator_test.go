package calculator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyScreener/internal/model"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func makeBars(closes []float64, start time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func makeSeries(closes []float64) *model.PriceSeries {
	return &model.PriceSeries{
		Instrument: model.Instrument{Symbol: "TEST"},
		Bars:       makeBars(closes, time.Date(2024, 1, 1, 0, 0, 0, 0, ist)),
	}
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		p *= 1 + (r.Float64()-0.5)*0.06
		out[i] = p
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 5)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assert.InDelta(t, 2.0, got[2].Float64, 1e-9)
	assert.InDelta(t, 3.0, got[3].Float64, 1e-9)
	assert.InDelta(t, 4.0, got[4].Float64, 1e-9)
}

func TestSMA_WindowLongerThanSeries(t *testing.T) {
	for _, f := range SMA([]float64{1, 2}, 5) {
		assert.False(t, f.Valid)
	}
}

func TestRSI_Wilder(t *testing.T) {
	got := RSI([]float64{10, 11, 10, 11, 10}, 2)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assert.InDelta(t, 50.0, got[2].Float64, 1e-9)
	assert.InDelta(t, 75.0, got[3].Float64, 1e-9)
	assert.InDelta(t, 37.5, got[4].Float64, 1e-9)
}

func TestRSI_NoLosses(t *testing.T) {
	got := RSI([]float64{100, 100, 100, 101, 102}, 3)
	assert.InDelta(t, 100.0, got[3].Float64, 1e-9)
	assert.InDelta(t, 100.0, got[4].Float64, 1e-9)
}

func TestRSI_DipAndRecovery(t *testing.T) {
	closes := make([]float64, 130)
	for i := range closes {
		closes[i] = 100
	}
	closes[125], closes[126] = 70, 70

	rsi := RSI(closes, 14)
	assert.InDelta(t, 0.0, rsi[125].Float64, 1e-9)
	assert.InDelta(t, 0.0, rsi[126].Float64, 1e-9)
	assert.InDelta(t, 53.70, rsi[127].Float64, 0.01)

	ma := SMA(closes, 124)
	assert.InDelta(t, 99.516, ma[127].Float64, 0.001)
}

func TestADX_Lookback(t *testing.T) {
	closes := randomWalk(60, 7)
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	for i, c := range closes {
		highs[i], lows[i] = c*1.01, c*0.99
	}
	adx := ADX(highs, lows, closes, 14)
	assert.False(t, adx[26].Valid)
	require.True(t, adx[27].Valid)
	for _, v := range adx[27:] {
		assert.GreaterOrEqual(t, v.Float64, 0.0)
		assert.LessOrEqual(t, v.Float64, 100.0)
	}

	short := ADX(highs[:20], lows[:20], closes[:20], 14)
	for _, v := range short {
		assert.False(t, v.Valid)
	}
}

func TestRollingHighLow(t *testing.T) {
	values := []float64{5, 3, 8, 1, 4, 6}
	hi := RollingHigh(values, 3)
	lo := RollingLow(values, 3)
	assert.False(t, hi[1].Valid)
	assert.Equal(t, []float64{8, 8, 8, 6}, []float64{hi[2].Float64, hi[3].Float64, hi[4].Float64, hi[5].Float64})
	assert.Equal(t, []float64{3, 1, 1, 1}, []float64{lo[2].Float64, lo[3].Float64, lo[4].Float64, lo[5].Float64})

	prev := Shift(hi, 1)
	assert.False(t, prev[0].Valid)
	assert.False(t, prev[2].Valid)
	assert.Equal(t, hi[2], prev[3])
}

func TestComputeIndicators_InsufficientData(t *testing.T) {
	_, err := ComputeIndicators(makeSeries([]float64{100}), DefaultIndicatorConfig())
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = ComputeIndicators(nil, DefaultIndicatorConfig())
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestComputeIndicators_MalformedBar(t *testing.T) {
	s := makeSeries([]float64{100, 101, 102})
	s.Bars[1].Close = 0
	_, err := ComputeIndicators(s, DefaultIndicatorConfig())
	assert.ErrorIs(t, err, model.ErrMissingField)

	s = makeSeries([]float64{100, 101, 102})
	s.Bars[2].Time = s.Bars[1].Time
	_, err = ComputeIndicators(s, DefaultIndicatorConfig())
	assert.ErrorIs(t, err, model.ErrMissingField)
}

func TestComputeIndicators_ShortSeriesHasNoValues(t *testing.T) {
	frame, err := ComputeIndicators(makeSeries([]float64{100, 101, 102}), DefaultIndicatorConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		row := frame.Row(i)
		assert.False(t, row.Ratio.Valid)
		assert.False(t, row.RSI.Valid)
		assert.False(t, row.RollingHigh.Valid)
	}
	assert.Contains(t, frame.MA, 124)
}

func TestComputeIndicators_RatioWindowAlwaysComputed(t *testing.T) {
	cfg := IndicatorConfig{MAWindows: []int{5}, RatioWindow: 10}
	frame, err := ComputeIndicators(makeSeries(randomWalk(30, 1)), cfg)
	require.NoError(t, err)
	assert.Contains(t, frame.MA, 5)
	assert.Contains(t, frame.MA, 10)
	assert.Nil(t, frame.ADX)
	assert.False(t, frame.Ratio[8].Valid)
	require.True(t, frame.Ratio[9].Valid)
	assert.InDelta(t, frame.LastTradedPrice[9]/frame.MA[10][9].Float64, frame.Ratio[9].Float64, 1e-12)
}

func TestComputeIndicators_Causal(t *testing.T) {
	closes := randomWalk(300, 42)
	full, err := ComputeIndicators(makeSeries(closes), DefaultIndicatorConfig())
	require.NoError(t, err)

	for _, n := range []int{30, 150, 250} {
		prefix, err := ComputeIndicators(makeSeries(closes[:n]), DefaultIndicatorConfig())
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			assert.Equal(t, prefix.Row(i), full.Row(i), "row %d of prefix %d", i, n)
			for w, ma := range prefix.MA {
				assert.Equal(t, ma[i], full.MA[w][i])
			}
		}
	}
}

func TestComputeIndicators_PreviousRollingHigh(t *testing.T) {
	frame, err := ComputeIndicators(makeSeries(randomWalk(80, 3)), DefaultIndicatorConfig())
	require.NoError(t, err)
	assert.False(t, frame.PreviousRollingHigh[0].Valid)
	for i := 1; i < frame.Len(); i++ {
		assert.Equal(t, frame.RollingHigh[i-1], frame.PreviousRollingHigh[i])
	}
}

func TestResampleWeekly(t *testing.T) {
	// Mon 2024-01-01 .. Wed 2024-01-10
	daily := makeBars([]float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, time.Date(2024, 1, 1, 0, 0, 0, 0, ist))
	weekly := ResampleWeekly(daily)
	require.Len(t, weekly, 2)

	assert.Equal(t, daily[0].Time, weekly[0].Time)
	assert.Equal(t, 10.0, weekly[0].Open)
	assert.Equal(t, 17.0, weekly[0].High)
	assert.Equal(t, 9.0, weekly[0].Low)
	assert.Equal(t, 16.0, weekly[0].Close)
	assert.Equal(t, 7000.0, weekly[0].Volume)

	assert.Equal(t, 17.0, weekly[1].Open)
	assert.Equal(t, 19.0, weekly[1].Close)
	assert.Equal(t, 3000.0, weekly[1].Volume)
}

func TestResampleWeekly_UsesBarLocation(t *testing.T) {
	// Monday 00:00 IST is still Sunday in UTC.
	sun := time.Date(2024, 1, 7, 10, 0, 0, 0, ist)
	mon := time.Date(2024, 1, 8, 0, 0, 0, 0, ist)
	bars := []model.OHLCV{
		{Time: sun, Open: 1, High: 1, Low: 1, Close: 1},
		{Time: mon, Open: 2, High: 2, Low: 2, Close: 2},
	}
	assert.Len(t, ResampleWeekly(bars), 2)
}

func TestResampleMonthly(t *testing.T) {
	daily := makeBars(randomWalk(70, 5), time.Date(2024, 1, 15, 0, 0, 0, 0, ist))
	monthly := ResampleMonthly(daily)
	require.Len(t, monthly, 3)
	assert.Equal(t, time.January, monthly[0].Time.Month())
	assert.Equal(t, time.March, monthly[2].Time.Month())
	assert.Equal(t, daily[len(daily)-1].Close, monthly[2].Close)
	assert.Nil(t, ResampleMonthly(nil))
}

func TestFiftyTwoWeekRange(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, ist)
	closes := make([]float64, 500)
	for i := range closes {
		closes[i] = 100
	}
	closes[10] = 500 // outside the window
	closes[200] = 150
	closes[300] = 150
	closes[400] = 60
	bars := makeBars(closes, start)
	asOf := bars[len(bars)-1].Time

	ext, err := FiftyTwoWeekRange(bars, asOf)
	require.NoError(t, err)
	assert.Equal(t, 151.0, ext.High)
	assert.Equal(t, bars[200].Time, ext.HighDate)
	assert.Equal(t, 59.0, ext.Low)
	assert.Equal(t, bars[400].Time, ext.LowDate)

	_, err = FiftyTwoWeekRange(bars[:5], asOf)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestFiftyTwoWeekRangeIgnoresTimeOfDay(t *testing.T) {
	edge := time.Date(2024, 3, 15, 0, 0, 0, 0, ist)
	bars := []model.OHLCV{
		{Time: edge, Open: 300, High: 300, Low: 290, Close: 295},
		{Time: edge.AddDate(0, 0, 100), Open: 100, High: 110, Low: 90, Close: 100},
	}
	day := edge.AddDate(0, 0, 365)

	for _, hour := range []int{0, 9, 16, 23} {
		ext, err := FiftyTwoWeekRange(bars, day.Add(time.Duration(hour)*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 300.0, ext.High, "hour %d", hour)
		assert.Equal(t, edge, ext.HighDate, "hour %d", hour)
	}

	ext, err := FiftyTwoWeekRange(bars, day.AddDate(0, 0, 1).Add(9*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 110.0, ext.High)
}

func TestLatestSnapshots(t *testing.T) {
	daily := makeBars(randomWalk(400, 9), time.Date(2023, 1, 2, 0, 0, 0, 0, ist))
	weekly := ResampleWeekly(daily)
	assert.True(t, LatestRSI(weekly, 14).Valid)
	assert.True(t, LatestADX(weekly, 14).Valid)

	monthly := ResampleMonthly(daily)
	assert.True(t, LatestRSI(monthly, 12).Valid)
	assert.False(t, LatestADX(monthly, 14).Valid)
	assert.False(t, LatestRSI(nil, 14).Valid)
}
