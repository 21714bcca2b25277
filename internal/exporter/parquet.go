package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"NiftyScreener/internal/model"
)

// TradeRecord is the Parquet row of a trade event.
type TradeRecord struct {
	Symbol        string   `parquet:"symbol"`
	InstrumentKey string   `parquet:"instrument_key"`
	List          string   `parquet:"list"`
	Underlying    string   `parquet:"underlying"`
	Date          string   `parquet:"date"`
	Action        string   `parquet:"action"`
	Price         float64  `parquet:"price"`
	RSI           *float64 `parquet:"rsi,optional"`
	Ratio         *float64 `parquet:"ratio,optional"`
}

// BreakoutRecord is the Parquet row of a breakout report. It carries the
// 52-week extremes that the sheet layout omits.
type BreakoutRecord struct {
	Symbol        string   `parquet:"symbol"`
	InstrumentKey string   `parquet:"instrument_key"`
	AsOf          string   `parquet:"as_of"`
	LowDate       string   `parquet:"low_date"`
	Low           *float64 `parquet:"low,optional"`
	OldGTT        *float64 `parquet:"old_gtt,optional"`
	NewGTT        *float64 `parquet:"new_gtt,optional"`
	Close         *float64 `parquet:"close,optional"`
	PercentDiff   *float64 `parquet:"pct_diff,optional"`
	Flag          string   `parquet:"flag"`
	BOHEligible   bool     `parquet:"boh_eligible"`
	TriggerDate   string   `parquet:"trigger_date"`
	TriggerPrice  *float64 `parquet:"trigger_price,optional"`
	PnLPercent    *float64 `parquet:"pnl_pct,optional"`
	High52w       *float64 `parquet:"high_52w,optional"`
	High52wDate   string   `parquet:"high_52w_date"`
	Low52w        *float64 `parquet:"low_52w,optional"`
	Low52wDate    string   `parquet:"low_52w_date"`
	DailyRSI      *float64 `parquet:"daily_rsi,optional"`
	WeeklyRSI     *float64 `parquet:"weekly_rsi,optional"`
	MonthlyRSI    *float64 `parquet:"monthly_rsi,optional"`
	DailyADX      *float64 `parquet:"daily_adx,optional"`
	WeeklyADX     *float64 `parquet:"weekly_adx,optional"`
	MonthlyADX    *float64 `parquet:"monthly_adx,optional"`
}

// ParquetExporter writes one <sheet>.parquet per export into Dir. Dates are
// ISO yyyy-mm-dd in IST.
type ParquetExporter struct {
	Dir string
}

func (e *ParquetExporter) ExportTrades(_ context.Context, sheet string, events []model.TradeEvent) error {
	rows := make([]TradeRecord, len(events))
	for i, ev := range events {
		rows[i] = TradeRecord{
			Symbol:        ev.Instrument.Symbol,
			InstrumentKey: ev.Instrument.InstrumentKey,
			List:          ev.Instrument.List,
			Underlying:    ev.Instrument.Name,
			Date:          formatDate(ev.Time, "2006-01-02"),
			Action:        string(ev.Action),
			Price:         ev.Price,
			RSI:           ev.RSI.Ptr(),
			Ratio:         ev.Ratio.Ptr(),
		}
	}
	return writeParquet(e.Dir, sheet, rows)
}

func (e *ParquetExporter) ExportBreakout(_ context.Context, sheet string, reports []model.BreakoutReport) error {
	rows := make([]BreakoutRecord, len(reports))
	for i, r := range reports {
		rows[i] = BreakoutRecord{
			Symbol:        r.Instrument.Symbol,
			InstrumentKey: r.Instrument.InstrumentKey,
			AsOf:          formatDate(r.AsOf, "2006-01-02"),
			LowDate:       formatDate(r.LowDate, "2006-01-02"),
			Low:           r.LowPrice.Ptr(),
			OldGTT:        r.OldGTT.Ptr(),
			NewGTT:        r.NewGTT.Ptr(),
			Close:         r.Close.Ptr(),
			PercentDiff:   r.PercentDiff.Ptr(),
			Flag:          string(r.Flag),
			BOHEligible:   r.BOHEligible,
			TriggerDate:   formatDate(r.TriggerDate, "2006-01-02"),
			TriggerPrice:  r.TriggerPrice.Ptr(),
			PnLPercent:    r.PnLPercent.Ptr(),
			High52w:       r.High52w.Ptr(),
			High52wDate:   formatDate(r.High52wDate, "2006-01-02"),
			Low52w:        r.Low52w.Ptr(),
			Low52wDate:    formatDate(r.Low52wDate, "2006-01-02"),
			DailyRSI:      r.DailyRSI.Ptr(),
			WeeklyRSI:     r.WeeklyRSI.Ptr(),
			MonthlyRSI:    r.MonthlyRSI.Ptr(),
			DailyADX:      r.DailyADX.Ptr(),
			WeeklyADX:     r.WeeklyADX.Ptr(),
			MonthlyADX:    r.MonthlyADX.Ptr(),
		}
	}
	return writeParquet(e.Dir, sheet, rows)
}

func writeParquet[T any](dir, sheet string, rows []T) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, sheet+".parquet")
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
