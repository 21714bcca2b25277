package strategy

import (
	"fmt"
	"time"

	"NiftyScreener/internal/calculator"
	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// PnLReference selects the entry price used for the breakout P&L.
type PnLReference string

const (
	// PnLReferenceTriggerLevel measures from the breakout level that was
	// crossed, the previous bar's rolling high at the trigger bar.
	PnLReferenceTriggerLevel PnLReference = "trigger_level"
	// PnLReferenceTriggerClose measures from the trigger bar's close.
	PnLReferenceTriggerClose PnLReference = "trigger_close"
)

// BreakoutRules configures EvaluateBreakout.
type BreakoutRules struct {
	PnLReference PnLReference `yaml:"pnl_reference" validate:"omitempty,oneof=trigger_level trigger_close"`
	RSIWindow    int          `yaml:"rsi_window" validate:"gte=0"`
	ADXWindow    int          `yaml:"adx_window" validate:"gte=0"`
}

// DefaultBreakoutRules measures P&L from the trigger level and uses 14-bar
// RSI and ADX on every timeframe.
var DefaultBreakoutRules = BreakoutRules{
	PnLReference: PnLReferenceTriggerLevel,
	RSIWindow:    14,
	ADXWindow:    14,
}

// EvaluateBreakout builds the breakout report of one instrument as of asOf.
// The frame must have been computed from series.
func EvaluateBreakout(series *model.PriceSeries, frame *model.IndicatorFrame, rules BreakoutRules, asOf time.Time) (*model.BreakoutReport, error) {
	if series == nil || frame == nil || series.Len() < 2 {
		return nil, fmt.Errorf("evaluate breakout: %w", model.ErrInsufficientData)
	}
	if frame.Len() != series.Len() {
		return nil, fmt.Errorf("evaluate breakout for %s: frame has %d rows, series %d bars",
			series.Instrument.Symbol, frame.Len(), series.Len())
	}
	if rules.PnLReference == "" {
		rules.PnLReference = DefaultBreakoutRules.PnLReference
	}
	if rules.RSIWindow <= 0 {
		rules.RSIWindow = DefaultBreakoutRules.RSIWindow
	}
	if rules.ADXWindow <= 0 {
		rules.ADXWindow = DefaultBreakoutRules.ADXWindow
	}

	bars := series.Bars
	last := len(bars) - 1
	rep := &model.BreakoutReport{
		Instrument: series.Instrument,
		AsOf:       asOf,
		OldGTT:     frame.PreviousRollingHigh[last],
		NewGTT:     frame.RollingHigh[last],
		Close:      model.Some(bars[last].Close),
	}

	lowIdx := -1
	for i := last; i >= 0; i-- {
		if frame.RollingLow[i].Valid && bars[i].Low == frame.RollingLow[i].Float64 {
			lowIdx = i
			break
		}
	}

	trigIdx := -1
	if lowIdx >= 0 {
		rep.LowDate = bars[lowIdx].Time
		rep.LowPrice = model.Some(bars[lowIdx].Low)
		for i := lowIdx + 1; i <= last; i++ {
			if prev := frame.PreviousRollingHigh[i]; prev.Valid && bars[i].High >= prev.Float64 {
				trigIdx = i
				break
			}
		}
	}

	if trigIdx >= 0 {
		level := frame.PreviousRollingHigh[trigIdx].Float64
		rep.TriggerDate = bars[trigIdx].Time
		rep.TriggerPrice = model.Some(level)
		ref := level
		if rules.PnLReference == PnLReferenceTriggerClose {
			ref = bars[trigIdx].Close
		}
		rep.PnLPercent = model.Some((bars[last].Close - ref) / ref * 100)
	} else if rep.NewGTT.Valid {
		c := bars[last].Close
		rep.PercentDiff = model.Some((rep.NewGTT.Float64 - c) / c * 100)
	}

	switch {
	case trigIdx >= 0:
		rep.Flag = model.FlagTriggered
	case rep.OldGTT.Valid && rep.NewGTT.Valid && rep.OldGTT.Float64 != rep.NewGTT.Float64:
		rep.Flag = model.FlagMoved
	case lowIdx >= 0 && markethours.SameDate(asOf, rep.LowDate):
		rep.Flag = model.FlagNewAdd
	default:
		rep.Flag = model.FlagNone
	}

	if ext, err := calculator.FiftyTwoWeekRange(bars, asOf); err == nil {
		rep.High52w, rep.High52wDate = model.Some(ext.High), ext.HighDate
		rep.Low52w, rep.Low52wDate = model.Some(ext.Low), ext.LowDate
		rep.BOHEligible = ext.LowDate.After(ext.HighDate)
	}

	rep.DailyRSI = frame.RSI[last]
	if frame.ADX != nil {
		rep.DailyADX = frame.ADX[last]
	} else {
		rep.DailyADX = calculator.LatestADX(bars, rules.ADXWindow)
	}
	weekly := calculator.ResampleWeekly(bars)
	monthly := calculator.ResampleMonthly(bars)
	rep.WeeklyRSI = calculator.LatestRSI(weekly, rules.RSIWindow)
	rep.WeeklyADX = calculator.LatestADX(weekly, rules.ADXWindow)
	rep.MonthlyRSI = calculator.LatestRSI(monthly, rules.RSIWindow)
	rep.MonthlyADX = calculator.LatestADX(monthly, rules.ADXWindow)

	return rep, nil
}
