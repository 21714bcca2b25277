package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"NiftyScreener/internal/collector"
	"NiftyScreener/internal/config"
	"NiftyScreener/internal/exporter"
	"NiftyScreener/internal/metrics"
	"NiftyScreener/internal/model"
	"NiftyScreener/internal/notifier"
	"NiftyScreener/internal/recorder"
	"NiftyScreener/internal/runner"
	"NiftyScreener/internal/symbols"
)

// app wires configuration to the runner and its sinks.
type app struct {
	cfg      *config.Config
	runner   *runner.Runner
	exporter exporter.Exporter
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier
	metrics  *metrics.Metrics
	closers  []func() error
	now      func() time.Time
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New(), now: time.Now}

	fetcher, err := a.buildFetcher()
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	a.recorder = a.buildRecorder()
	a.closers = append(a.closers, a.recorder.Close)

	exp, err := exporter.New(ctx, exporter.Options{
		Format:          cfg.Export.Format,
		Dir:             cfg.Export.Dir,
		SpreadsheetID:   cfg.Export.SpreadsheetID,
		CredentialsFile: cfg.Export.CredentialsFile,
		Underlying:      cfg.Export.Underlying,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.exporter = exp

	r := runner.New(collector.NewCollector(fetcher), fetcher.Name())
	r.Indicators = cfg.Indicators
	r.Workers = cfg.Runner.Workers
	r.NotifyRetries = cfg.Runner.NotifyRetries
	r.Recorder = a.recorder
	r.Metrics = a.metrics
	if cfg.Telegram.BotToken != "" {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		r.Notifier = a.telegram
	} else {
		log.Println("[WARN] telegram not configured, alerts disabled")
	}
	a.runner = r
	return a, nil
}

func (a *app) buildFetcher() (collector.Fetcher, error) {
	ds := a.cfg.DataSource
	limiter := rate.NewLimiter(rate.Limit(ds.RatePerSecond), ds.Burst)

	var fetcher collector.Fetcher
	switch ds.Provider {
	case "upstox":
		fetcher = collector.NewUpstoxFetcher(ds.BaseURL, ds.AccessToken, a.cfg.Proxy, limiter)
	case "yahoo":
		fetcher = collector.NewYahooFetcher(a.cfg.Proxy, limiter)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		return nil, fmt.Errorf("unknown data source %q", ds.Provider)
	}

	if c := a.cfg.Cache; c.RedisAddr != "" {
		store, err := collector.NewRedisStore(c.RedisAddr, c.Password, c.DB)
		if err != nil {
			log.Printf("[WARN] candle cache disabled: %v", err)
			return fetcher, nil
		}
		a.closers = append(a.closers, store.Close)
		fetcher = collector.NewCachedFetcher(fetcher, store, c.TTL)
	}
	return fetcher, nil
}

func (a *app) buildRecorder() recorder.Recorder {
	db := a.cfg.Database
	switch {
	case db.PostgresDSN != "":
		pr, err := recorder.NewPostgresRecorder(db.PostgresDSN)
		if err == nil {
			return pr
		}
		log.Printf("[WARN] init postgres recorder failed, using noop: %v", err)
	case db.SQLitePath != "":
		if err := os.MkdirAll(filepath.Dir(db.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create sqlite dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(db.SQLitePath)
		if err == nil {
			return sr
		}
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
	}
	return recorder.NewNoopRecorder()
}

// Close releases the recorder and cache connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
}

// lists resolves the configured symbol lists. The instrument master is only
// downloaded when an ETF list needs it.
func (a *app) lists(ctx context.Context) ([]symbols.List, []model.Instrument, error) {
	var master *symbols.Master
	for _, spec := range a.cfg.Symbols.Lists {
		if spec.Kind != symbols.KindETF {
			continue
		}
		m, err := symbols.LoadMaster(ctx, a.cfg.Symbols.Master, nil)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] instrument master: %d equities", m.Len())
		master = m
		break
	}

	lists, err := symbols.NewLoader(master).Load(a.cfg.Symbols.Lists)
	if err != nil {
		return nil, nil, err
	}
	var insts []model.Instrument
	for _, l := range lists {
		insts = append(insts, l.Instruments...)
	}
	if len(insts) == 0 {
		return nil, nil, fmt.Errorf("symbol lists resolved to no instruments")
	}
	return lists, insts, nil
}

// tabs returns the export tabs in list order and the tab of every list.
// Lists naming the same tab share it.
func tabs(lists []symbols.List, tabOf func(symbols.List) string) ([]string, map[string]string) {
	var order []string
	byList := make(map[string]string, len(lists))
	for _, l := range lists {
		tab := tabOf(l)
		byList[l.Name] = tab
		if !slices.Contains(order, tab) {
			order = append(order, tab)
		}
	}
	return order, byList
}

func (a *app) runTrades(ctx context.Context) error {
	lists, insts, err := a.lists(ctx)
	if err != nil {
		return err
	}
	rules, err := a.cfg.RuleSet()
	if err != nil {
		return err
	}
	from, err := a.cfg.TradesFrom()
	if err != nil {
		return err
	}

	res, err := a.runner.RunTrades(ctx, insts, rules, from, a.now())
	if err != nil {
		return err
	}

	order, tabOf := tabs(lists, func(l symbols.List) string {
		_, trades := a.cfg.SheetFor(l)
		return trades
	})
	rows := make(map[string][]model.TradeEvent, len(order))
	for _, e := range res.Events {
		tab := tabOf[e.Instrument.List]
		rows[tab] = append(rows[tab], e)
	}
	var errs []error
	for _, tab := range order {
		if err := a.exporter.ExportTrades(ctx, tab, rows[tab]); err != nil {
			errs = append(errs, fmt.Errorf("export trades %s: %w", tab, err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) runBreakout(ctx context.Context) error {
	lists, insts, err := a.lists(ctx)
	if err != nil {
		return err
	}
	asOf := a.now()
	res, err := a.runner.RunBreakout(ctx, insts, a.cfg.Breakout, a.cfg.BreakoutFrom(asOf), asOf, asOf)
	if err != nil {
		return err
	}

	order, tabOf := tabs(lists, func(l symbols.List) string {
		breakout, _ := a.cfg.SheetFor(l)
		return breakout
	})
	rows := make(map[string][]model.BreakoutReport, len(order))
	for _, r := range res.Reports {
		tab := tabOf[r.Instrument.List]
		rows[tab] = append(rows[tab], r)
	}
	var errs []error
	for _, tab := range order {
		if err := a.exporter.ExportBreakout(ctx, tab, rows[tab]); err != nil {
			errs = append(errs, fmt.Errorf("export breakout %s: %w", tab, err))
		}
	}
	return errors.Join(errs...)
}
