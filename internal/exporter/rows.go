package exporter

import (
	"fmt"
	"time"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

const (
	tradeDateLayout    = "02-01-2006"
	breakoutDateLayout = "02-Jan-2006"
)

// TradeHeader returns the trade log columns.
func TradeHeader(underlying bool) []string {
	h := []string{"Stock", "Date", "Action", "Price", "RSI", "Ratio"}
	if underlying {
		h = append(h, "Underlying")
	}
	return h
}

// TradeRows renders events in TradeHeader order.
func TradeRows(events []model.TradeEvent, underlying bool) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		row := []string{
			e.Instrument.Symbol,
			formatDate(e.Time, tradeDateLayout),
			string(e.Action),
			fmt.Sprintf("%.2f", e.Price),
			e.RSI.Format2(),
			e.Ratio.Format2(),
		}
		if underlying {
			row = append(row, e.Instrument.Name)
		}
		rows = append(rows, row)
	}
	return rows
}

// BreakoutHeader lists the breakout report columns.
var BreakoutHeader = []string{
	"Stock", "20D LOW DATE", "20D LOW", "OLD GTT", "NEW GTT", "CLOSE", "%DIFF", "GTT UPDATE",
	"BOH ELIGIBLE", "TRIGGER DATE", "GTT TRIGGER PRICE", "P&L %",
	"DAILY RSI", "WEEKLY RSI", "MONTHLY RSI", "DAILY ADX", "WEEKLY ADX", "MONTHLY ADX",
}

// BreakoutRows renders reports in BreakoutHeader order.
func BreakoutRows(reports []model.BreakoutReport) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Instrument.Symbol,
			formatDate(r.LowDate, breakoutDateLayout),
			r.LowPrice.Format2(),
			r.OldGTT.Format2(),
			r.NewGTT.Format2(),
			r.Close.Format2(),
			r.PercentDiff.Format2(),
			string(r.Flag),
			r.BOHFlag(),
			formatDate(r.TriggerDate, breakoutDateLayout),
			r.TriggerPrice.Format2(),
			r.PnLPercent.Format2(),
			r.DailyRSI.Format2(),
			r.WeeklyRSI.Format2(),
			r.MonthlyRSI.Format2(),
			r.DailyADX.Format2(),
			r.WeeklyADX.Format2(),
			r.MonthlyADX.Format2(),
		})
	}
	return rows
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(markethours.IST).Format(layout)
}
