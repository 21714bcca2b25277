package exporter

import (
	"context"
	"fmt"
	"strings"

	"NiftyScreener/internal/model"
)

// Exporter publishes run results to an external sink. sheet names the
// destination tab, or the file stem for file-based sinks.
type Exporter interface {
	ExportTrades(ctx context.Context, sheet string, events []model.TradeEvent) error
	ExportBreakout(ctx context.Context, sheet string, reports []model.BreakoutReport) error
}

// Options configures the sink built by New.
type Options struct {
	Format          string // sheets, csv or parquet
	Dir             string
	SpreadsheetID   string
	CredentialsFile string
	Underlying      bool // add the Underlying column to trade rows
}

// New builds the exporter named by opts.Format.
func New(ctx context.Context, opts Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "sheets":
		return NewSheetsExporter(ctx, opts.CredentialsFile, opts.SpreadsheetID, opts.Underlying)
	case "csv":
		return &CSVExporter{Dir: opts.Dir, Underlying: opts.Underlying}, nil
	case "parquet":
		return &ParquetExporter{Dir: opts.Dir}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use: sheets, csv, parquet)", opts.Format)
	}
}
