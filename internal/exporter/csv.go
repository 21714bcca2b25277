package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"NiftyScreener/internal/model"
)

// CSVExporter writes one <sheet>.csv per export into Dir.
type CSVExporter struct {
	Dir        string
	Underlying bool
}

func (e *CSVExporter) ExportTrades(_ context.Context, sheet string, events []model.TradeEvent) error {
	return e.write(sheet, TradeHeader(e.Underlying), TradeRows(events, e.Underlying))
}

func (e *CSVExporter) ExportBreakout(_ context.Context, sheet string, reports []model.BreakoutReport) error {
	return e.write(sheet, BreakoutHeader, BreakoutRows(reports))
}

func (e *CSVExporter) write(sheet string, header []string, rows [][]string) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.Dir, sheet+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
