package calculator

import (
	"fmt"
	"sort"
	"time"

	"NiftyScreener/internal/model"
)

// IndicatorConfig selects the windows computed by ComputeIndicators.
type IndicatorConfig struct {
	MAWindows   []int `yaml:"ma_windows" validate:"dive,gt=0"`
	RatioWindow int   `yaml:"ratio_window" validate:"gte=0"`
	RSIWindow   int   `yaml:"rsi_window" validate:"gte=0"`
	RangeWindow int   `yaml:"range_window" validate:"gte=0"`
	ADX         bool  `yaml:"adx"`
	ADXWindow   int   `yaml:"adx_window" validate:"gte=0"`
}

// DefaultIndicatorConfig returns the windows used by the daily jobs.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		MAWindows:   []int{20, 50, 124, 200},
		RatioWindow: 124,
		RSIWindow:   14,
		RangeWindow: 20,
		ADX:         true,
		ADXWindow:   14,
	}
}

func (c IndicatorConfig) withDefaults() IndicatorConfig {
	d := DefaultIndicatorConfig()
	if c.RatioWindow <= 0 {
		c.RatioWindow = d.RatioWindow
	}
	if c.RSIWindow <= 0 {
		c.RSIWindow = d.RSIWindow
	}
	if c.RangeWindow <= 0 {
		c.RangeWindow = d.RangeWindow
	}
	if c.ADXWindow <= 0 {
		c.ADXWindow = d.ADXWindow
	}
	return c
}

// windows returns the distinct MA windows including the ratio window.
func (c IndicatorConfig) windows() []int {
	seen := map[int]bool{c.RatioWindow: true}
	out := []int{c.RatioWindow}
	for _, w := range c.MAWindows {
		if w > 0 && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}

// ComputeIndicators derives the full indicator frame for a series.
// Every value at index i depends only on bars [0..i]; windows longer than
// the series yield not-available values rather than an error.
func ComputeIndicators(series *model.PriceSeries, cfg IndicatorConfig) (*model.IndicatorFrame, error) {
	if series == nil || series.Len() < 2 {
		n := 0
		if series != nil {
			n = series.Len()
		}
		return nil, fmt.Errorf("compute indicators: %d bars: %w", n, model.ErrInsufficientData)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("compute indicators for %s: %w", series.Instrument.Symbol, err)
	}
	cfg = cfg.withDefaults()

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	frame := &model.IndicatorFrame{
		Time:            make([]time.Time, len(series.Bars)),
		LastTradedPrice: closes,
		MA:              make(map[int][]model.Float),
		RatioWindow:     cfg.RatioWindow,
		RangeWindow:     cfg.RangeWindow,
	}
	for i, b := range series.Bars {
		frame.Time[i] = b.Time
	}
	for _, w := range cfg.windows() {
		frame.MA[w] = SMA(closes, w)
	}
	frame.Ratio = Ratio(closes, frame.MA[cfg.RatioWindow])
	frame.RSI = RSI(closes, cfg.RSIWindow)
	if cfg.ADX {
		frame.ADX = ADX(highs, lows, closes, cfg.ADXWindow)
	}
	frame.RollingLow = RollingLow(lows, cfg.RangeWindow)
	frame.RollingHigh = RollingHigh(highs, cfg.RangeWindow)
	frame.PreviousRollingHigh = Shift(frame.RollingHigh, 1)
	return frame, nil
}

// LatestRSI returns the most recent RSI of bars, typically a resampled
// series.
func LatestRSI(bars []model.OHLCV, period int) model.Float {
	if len(bars) == 0 {
		return model.None
	}
	return RSI(extractCloses(bars), period)[len(bars)-1]
}

// LatestADX returns the most recent ADX of bars.
func LatestADX(bars []model.OHLCV, period int) model.Float {
	if len(bars) == 0 {
		return model.None
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i] = b.High, b.Low
	}
	return ADX(highs, lows, extractCloses(bars), period)[len(bars)-1]
}
