package model

import (
	"sort"
	"time"
)

// Action is the kind of a TradeEvent.
type Action string

const (
	ActionBuy        Action = "Buy"
	ActionSell       Action = "Sell"
	ActionProfitLoss Action = "Profit/Loss"
)

// TradeEvent is one row of the mean-reversion trade log.
// For ActionProfitLoss, Price is sell minus buy.
type TradeEvent struct {
	Instrument Instrument
	Time       time.Time
	Action     Action
	Price      float64
	RSI        Float
	Ratio      Float
}

// BreakoutFlag is the GTT update column.
type BreakoutFlag string

const (
	FlagNone      BreakoutFlag = ""
	FlagMoved     BreakoutFlag = "YES"
	FlagNewAdd    BreakoutFlag = "NEW ADD"
	FlagTriggered BreakoutFlag = "TRIGGERED"
)

// BreakoutReport is the per-instrument result of one breakout evaluation.
// Zero times mean "no such date".
type BreakoutReport struct {
	Instrument Instrument
	AsOf       time.Time

	LowDate  time.Time
	LowPrice Float
	OldGTT   Float
	NewGTT   Float
	Close    Float

	PercentDiff  Float
	Flag         BreakoutFlag
	TriggerDate  time.Time
	TriggerPrice Float
	PnLPercent   Float

	BOHEligible bool
	High52w     Float
	High52wDate time.Time
	Low52w      Float
	Low52wDate  time.Time

	DailyRSI   Float
	WeeklyRSI  Float
	MonthlyRSI Float
	DailyADX   Float
	WeeklyADX  Float
	MonthlyADX Float
}

// BOHFlag renders the eligibility column.
func (r *BreakoutReport) BOHFlag() string {
	if r.BOHEligible {
		return "YES"
	}
	return ""
}

// SortTradeEvents orders events by instrument symbol, then date. The sort is
// stable so same-day Buy/Sell/ProfitLoss rows keep their emission order.
func SortTradeEvents(events []TradeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Instrument.Symbol != b.Instrument.Symbol {
			return a.Instrument.Symbol < b.Instrument.Symbol
		}
		return a.Time.Before(b.Time)
	})
}

// SortBreakoutReports orders reports by instrument symbol.
func SortBreakoutReports(reports []BreakoutReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Instrument.Symbol < reports[j].Instrument.Symbol
	})
}
