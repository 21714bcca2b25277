package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
	"NiftyScreener/internal/recorder"
)

const alertDate = "02-01-2006"

// FormatTradeAlert renders a Buy or Sell event. Other actions return "".
func FormatTradeAlert(e model.TradeEvent) string {
	var title string
	switch e.Action {
	case model.ActionBuy:
		title = "🔔 <b>BUY ALERT</b>"
	case model.ActionSell:
		title = "❗ <b>SELL ALERT</b>"
	default:
		return ""
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(fmt.Sprintf("Stock: %s\n", html.EscapeString(e.Instrument.Symbol)))
	b.WriteString(fmt.Sprintf("Date: %s\n", e.Time.In(markethours.IST).Format(alertDate)))
	b.WriteString(fmt.Sprintf("Price: ₹%.2f\n", e.Price))
	b.WriteString(fmt.Sprintf("RSI: %s | Ratio: %s", orNA(e.RSI), orNA(e.Ratio)))
	return b.String()
}

// FormatFailure renders a per-instrument error alert.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("⚠️ ERROR in %s: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatTradeSummary renders the end-of-run summary of the trade job.
func FormatTradeSummary(day time.Time, total int) string {
	if total == 0 {
		return "⚠️ No trades generated today."
	}
	return fmt.Sprintf("📊 <b>Daily Summary</b>: %s\nTotal Trades: %d", day.In(markethours.IST).Format(alertDate), total)
}

// FormatBreakoutDigest lists triggered and newly added GTT levels.
func FormatBreakoutDigest(day time.Time, reports []model.BreakoutReport) string {
	var triggered, added, moved []string
	for _, r := range reports {
		sym := html.EscapeString(r.Instrument.Symbol)
		switch r.Flag {
		case model.FlagTriggered:
			triggered = append(triggered, fmt.Sprintf("%s @ %s (P&amp;L %s%%)", sym, r.TriggerPrice.Format2(), r.PnLPercent.Format2()))
		case model.FlagNewAdd:
			added = append(added, fmt.Sprintf("%s GTT %s", sym, r.NewGTT.Format2()))
		case model.FlagMoved:
			moved = append(moved, fmt.Sprintf("%s %s → %s", sym, r.OldGTT.Format2(), r.NewGTT.Format2()))
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Breakout Levels</b> | %s\n", day.In(markethours.IST).Format("02-Jan-2006")))
	b.WriteString(fmt.Sprintf("Instruments: %d\n", len(reports)))
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n", title, len(lines)))
		for _, l := range lines {
			b.WriteString("  " + l + "\n")
		}
	}
	section("Triggered", triggered)
	section("New Add", added)
	section("GTT Update", moved)
	if len(triggered)+len(added)+len(moved) == 0 {
		b.WriteString("\nNo GTT changes.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStatus renders market status plus the last run of each job.
func FormatStatus(now time.Time, runs map[string]*recorder.Run) string {
	var b strings.Builder
	b.WriteString("📦 <b>Screener Status</b>\n\n")
	b.WriteString(fmt.Sprintf("Market: %s\n", markethours.StatusString(now)))
	for _, job := range []string{recorder.JobTrades, recorder.JobBreakout} {
		run := runs[job]
		if run == nil {
			b.WriteString(fmt.Sprintf("%s: never run\n", job))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s | %d/%d ok | %d results\n",
			job, run.FinishedAt.In(markethours.IST).Format("02-01-2006 15:04"),
			run.Succeeded, run.Instruments, run.Results))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNA(f model.Float) string {
	if s := f.Format2(); s != "" {
		return s
	}
	return "n/a"
}
