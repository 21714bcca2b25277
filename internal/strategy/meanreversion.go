package strategy

import (
	"fmt"

	"NiftyScreener/internal/model"
)

// State is the position of the mean-reversion tracker.
type State int

const (
	Idle State = iota
	Observing
	HoldingPosition
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Observing:
		return "Observing"
	case HoldingPosition:
		return "HoldingPosition"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TradeRules holds the thresholds of the mean-reversion tracker.
type TradeRules struct {
	OversoldRSI   float64 `yaml:"oversold_rsi" validate:"gt=0,lt=100"`
	EntryRatio    float64 `yaml:"entry_ratio" validate:"gt=0"`
	ExitRatio     float64 `yaml:"exit_ratio" validate:"gt=0"`
	OverboughtRSI float64 `yaml:"overbought_rsi" validate:"gt=0,lt=100"`
	StopLoss      float64 `yaml:"stop_loss" validate:"gt=0,lte=1"`
}

// EquityRules is the rule set for index constituents.
var EquityRules = TradeRules{
	OversoldRSI:   30,
	EntryRatio:    0.80,
	ExitRatio:     1.30,
	OverboughtRSI: 70,
	StopLoss:      0.75,
}

// ETFRules loosens the entry ratio and raises the RSI exit for ETFs.
var ETFRules = TradeRules{
	OversoldRSI:   30,
	EntryRatio:    0.90,
	ExitRatio:     1.30,
	OverboughtRSI: 75,
	StopLoss:      0.75,
}

// RulesPreset returns a named rule set: "equity" or "etf".
func RulesPreset(name string) (TradeRules, error) {
	switch name {
	case "", "equity":
		return EquityRules, nil
	case "etf":
		return ETFRules, nil
	default:
		return TradeRules{}, fmt.Errorf("unknown rules preset %q", name)
	}
}

// RuleSet selects trade rules per symbol list.
type RuleSet struct {
	Default TradeRules
	ByList  map[string]TradeRules
}

// Uniform applies rules to every list.
func Uniform(rules TradeRules) RuleSet {
	return RuleSet{Default: rules}
}

// For returns the rules of the list inst belongs to.
func (s RuleSet) For(inst model.Instrument) TradeRules {
	if r, ok := s.ByList[inst.List]; ok {
		return r
	}
	return s.Default
}

type openPosition struct {
	entry float64
}

// TrackTrades walks the frame bar by bar and returns the Buy, Sell and
// ProfitLoss events of the mean-reversion strategy.
//
// Per bar, an Idle tracker starts observing when RSI is oversold and the
// ratio is below the entry ratio; otherwise an Observing tracker buys at
// the close once RSI climbs back above the oversold level. An open position
// is then checked on the same bar and sold when the ratio exceeds the exit
// ratio, RSI exceeds the overbought level, or the close falls under the
// stop-loss fraction of the entry price. Missing RSI or ratio values never
// satisfy a comparison.
func TrackTrades(inst model.Instrument, frame *model.IndicatorFrame, rules TradeRules) []model.TradeEvent {
	if frame == nil {
		return nil
	}
	var (
		events []model.TradeEvent
		state  = Idle
		pos    *openPosition
	)
	for i := 0; i < frame.Len(); i++ {
		row := frame.Row(i)
		ltp := row.LastTradedPrice

		if state == Idle && row.RSI.Lt(rules.OversoldRSI) && row.Ratio.Lt(rules.EntryRatio) {
			state = Observing
		} else if state == Observing && row.RSI.Gt(rules.OversoldRSI) && pos == nil {
			pos = &openPosition{entry: ltp}
			state = HoldingPosition
			events = append(events, newEvent(inst, row, model.ActionBuy, ltp))
		}

		if state == HoldingPosition &&
			(row.Ratio.Gt(rules.ExitRatio) || row.RSI.Gt(rules.OverboughtRSI) || ltp < rules.StopLoss*pos.entry) {
			events = append(events,
				newEvent(inst, row, model.ActionSell, ltp),
				newEvent(inst, row, model.ActionProfitLoss, ltp-pos.entry),
			)
			pos = nil
			state = Idle
		}
	}
	return events
}

func newEvent(inst model.Instrument, row model.IndicatorRow, action model.Action, price float64) model.TradeEvent {
	return model.TradeEvent{
		Instrument: inst,
		Time:       row.Time,
		Action:     action,
		Price:      price,
		RSI:        row.RSI,
		Ratio:      row.Ratio,
	}
}

// ValidateTrades checks the event log of one instrument: Buys and Sells
// alternate starting with a Buy, every Sell is followed by a ProfitLoss
// equal to the sell price minus the preceding buy price, and times never go
// backwards.
func ValidateTrades(events []model.TradeEvent) error {
	var (
		buy     *model.TradeEvent
		lastBuy float64
		sold    *model.TradeEvent
	)
	for i := range events {
		e := &events[i]
		if i > 0 && e.Time.Before(events[i-1].Time) {
			return fmt.Errorf("event %d: time %s before previous event", i, e.Time.Format("2006-01-02"))
		}
		if sold != nil && e.Action != model.ActionProfitLoss {
			return fmt.Errorf("event %d: %s after Sell, want Profit/Loss", i, e.Action)
		}
		switch e.Action {
		case model.ActionBuy:
			if buy != nil {
				return fmt.Errorf("event %d: Buy while holding", i)
			}
			buy = e
		case model.ActionSell:
			if buy == nil {
				return fmt.Errorf("event %d: Sell without Buy", i)
			}
			lastBuy = buy.Price
			buy, sold = nil, e
		case model.ActionProfitLoss:
			if sold == nil {
				return fmt.Errorf("event %d: Profit/Loss without Sell", i)
			}
			if want := sold.Price - lastBuy; e.Price != want {
				return fmt.Errorf("event %d: Profit/Loss %v, want %v", i, e.Price, want)
			}
			sold = nil
		default:
			return fmt.Errorf("event %d: unknown action %q", i, e.Action)
		}
	}
	if sold != nil {
		return fmt.Errorf("log ends after Sell without Profit/Loss")
	}
	return nil
}
