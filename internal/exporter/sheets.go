package exporter

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// Sheet layout: trades carry the header on row 2, breakout reports on row 3
// with the "Last Update" stamp in I1.
const (
	tradeHeaderRow    = 2
	breakoutHeaderRow = 3
	lastUpdateCell    = "I1"
	lastUpdateLayout  = "02-01-2006 03:04:05 PM"
)

// SheetsExporter writes results into tabs of one Google spreadsheet.
type SheetsExporter struct {
	svc           *sheets.Service
	SpreadsheetID string
	Underlying    bool
	now           func() time.Time
}

// NewSheetsExporter authenticates with a service-account JSON key file.
func NewSheetsExporter(ctx context.Context, credentialsFile, spreadsheetID string, underlying bool) (*SheetsExporter, error) {
	return newSheetsExporter(ctx, spreadsheetID, underlying,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
}

func newSheetsExporter(ctx context.Context, spreadsheetID string, underlying bool, opts ...option.ClientOption) (*SheetsExporter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets exporter: spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{svc: svc, SpreadsheetID: spreadsheetID, Underlying: underlying, now: time.Now}, nil
}

func (e *SheetsExporter) ExportTrades(ctx context.Context, sheet string, events []model.TradeEvent) error {
	header := TradeHeader(e.Underlying)
	if err := e.replace(ctx, sheet, tradeHeaderRow, header, TradeRows(events, e.Underlying)); err != nil {
		return err
	}
	log.Printf("[INFO] wrote %d trade rows to sheet %q", len(events), sheet)
	return nil
}

func (e *SheetsExporter) ExportBreakout(ctx context.Context, sheet string, reports []model.BreakoutReport) error {
	if err := e.replace(ctx, sheet, breakoutHeaderRow, BreakoutHeader, BreakoutRows(reports)); err != nil {
		return err
	}
	stamp := "Last Update: " + e.now().In(markethours.IST).Format(lastUpdateLayout)
	if err := e.update(ctx, fmt.Sprintf("%s!%s", sheet, lastUpdateCell), [][]string{{stamp}}); err != nil {
		return err
	}
	log.Printf("[INFO] wrote %d breakout rows to sheet %q", len(reports), sheet)
	return nil
}

// replace clears everything from the header row down across the header's
// columns, then writes header and rows in one update.
func (e *SheetsExporter) replace(ctx context.Context, sheet string, headerRow int, header []string, rows [][]string) error {
	lastCol := columnName(len(header))
	clearRange := fmt.Sprintf("%s!A%d:%s", sheet, headerRow, lastCol)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}
	values := append([][]string{header}, rows...)
	return e.update(ctx, fmt.Sprintf("%s!A%d", sheet, headerRow), values)
}

func (e *SheetsExporter) update(ctx context.Context, rng string, values [][]string) error {
	vr := &sheets.ValueRange{Values: make([][]interface{}, len(values))}
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		vr.Values[i] = cells
	}
	if _, err := e.svc.Spreadsheets.Values.Update(e.SpreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// columnName converts a 1-based column number to A1 letters.
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
