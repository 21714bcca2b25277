package collector

import (
	"context"
	"math"
	"time"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Bars for a symbol come from Data when present; otherwise a deterministic
// oscillating series around Price is generated for every trading day in the
// requested range.
type MockFetcher struct {
	Price  float64
	Data   map[string][]model.OHLCV
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, inst model.Instrument, from, to time.Time) ([]model.OHLCV, error) {
	if err, ok := m.Errors[inst.Symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Data[inst.Symbol]; ok {
		out := make([]model.OHLCV, len(bars))
		copy(out, bars)
		return out, nil
	}
	base := m.Price
	if base <= 0 {
		base = 1000
	}
	return generateMockBars(base, from, to), nil
}

func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := markethours.Date(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if !markethours.IsTradingDay(d) {
			continue
		}
		p := basePrice * (1 + 0.25*math.Sin(float64(i)/40))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
