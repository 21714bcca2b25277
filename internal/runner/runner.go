package runner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NiftyScreener/internal/calculator"
	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/metrics"
	"NiftyScreener/internal/model"
	"NiftyScreener/internal/notifier"
	"NiftyScreener/internal/recorder"
	"NiftyScreener/internal/strategy"
)

// DefaultWorkers is the pool size used when Workers is not set.
const DefaultWorkers = 10

// Source produces validated price series. *collector.Collector implements it.
type Source interface {
	Collect(ctx context.Context, inst model.Instrument, from, to time.Time) (*model.PriceSeries, error)
}

// Failure is one instrument that could not be evaluated.
type Failure struct {
	Instrument model.Instrument
	Kind       string
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Instrument.Symbol, f.Err)
}

// Summary is shared by both job results.
type Summary struct {
	RunID       string
	Job         string
	StartedAt   time.Time
	FinishedAt  time.Time
	Instruments int
	Failures    []Failure
}

// Succeeded returns the number of instruments evaluated without error.
func (s *Summary) Succeeded() int { return s.Instruments - len(s.Failures) }

// TradeResult is the merged output of a trades run.
type TradeResult struct {
	Summary
	Events []model.TradeEvent
}

// BreakoutResult is the merged output of a breakout run.
type BreakoutResult struct {
	Summary
	Reports []model.BreakoutReport
}

// Runner evaluates many instruments concurrently. Per-instrument failures
// are collected and never abort the batch.
type Runner struct {
	Source     Source
	SourceName string
	Indicators calculator.IndicatorConfig
	Workers    int

	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Notifier notifier.Notifier // optional

	NotifyRetries int
	// AlertSince limits trade alerts to events dated on or after it. Zero
	// means the latest trading session.
	AlertSince time.Time

	now func() time.Time
}

// New creates a Runner with default indicators and a noop recorder.
func New(source Source, sourceName string) *Runner {
	return &Runner{
		Source:        source,
		SourceName:    sourceName,
		Indicators:    calculator.DefaultIndicatorConfig(),
		Workers:       DefaultWorkers,
		Recorder:      recorder.NewNoopRecorder(),
		NotifyRetries: 2,
		now:           time.Now,
	}
}

// RunTrades runs the mean-reversion tracker over every instrument with bars
// dated within [from, to], using the rules of the instrument's list. The
// returned error is non-nil only when ctx was cancelled; the partial result
// is still returned.
func (r *Runner) RunTrades(ctx context.Context, instruments []model.Instrument, rules strategy.RuleSet, from, to time.Time) (*TradeResult, error) {
	res := &TradeResult{Summary: r.begin(recorder.JobTrades, instruments)}
	log.Printf("[INFO] run=%s job=trades instruments=%d from=%s to=%s",
		res.RunID, len(instruments), from.Format("2006-01-02"), to.Format("2006-01-02"))

	var mu sync.Mutex
	err := r.each(ctx, instruments, recorder.JobTrades, &mu, &res.Summary, func(ctx context.Context, inst model.Instrument) error {
		events, err := r.evaluateTrades(ctx, inst, rules.For(inst), from, to)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Events = append(res.Events, events...)
		mu.Unlock()
		return nil
	})

	model.SortTradeEvents(res.Events)
	r.finish(&res.Summary, len(res.Events))
	r.Metrics.ObserveTrades(res.Events)

	if err := r.Recorder.RecordTrades(res.RunID, res.Events); err != nil {
		log.Printf("[WARN] run=%s record trades: %v", res.RunID, err)
	}
	r.notifyTrades(ctx, res)
	return res, err
}

// RunBreakout evaluates breakout levels for every instrument as of asOf,
// using bars dated within [from, to].
func (r *Runner) RunBreakout(ctx context.Context, instruments []model.Instrument, rules strategy.BreakoutRules, from, to, asOf time.Time) (*BreakoutResult, error) {
	res := &BreakoutResult{Summary: r.begin(recorder.JobBreakout, instruments)}
	log.Printf("[INFO] run=%s job=breakout instruments=%d as_of=%s",
		res.RunID, len(instruments), asOf.Format("2006-01-02"))

	var mu sync.Mutex
	err := r.each(ctx, instruments, recorder.JobBreakout, &mu, &res.Summary, func(ctx context.Context, inst model.Instrument) error {
		report, err := r.evaluateBreakout(ctx, inst, rules, from, to, asOf)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Reports = append(res.Reports, *report)
		mu.Unlock()
		return nil
	})

	model.SortBreakoutReports(res.Reports)
	r.finish(&res.Summary, len(res.Reports))
	r.Metrics.ObserveBreakouts(res.Reports)

	if err := r.Recorder.RecordBreakouts(res.RunID, res.Reports); err != nil {
		log.Printf("[WARN] run=%s record breakouts: %v", res.RunID, err)
	}
	r.notifyBreakout(ctx, res, asOf)
	return res, err
}

func (r *Runner) evaluateTrades(ctx context.Context, inst model.Instrument, rules strategy.TradeRules, from, to time.Time) ([]model.TradeEvent, error) {
	series, err := r.Source.Collect(ctx, inst, from, to)
	if err != nil {
		return nil, err
	}
	frame, err := calculator.ComputeIndicators(series, r.Indicators)
	if err != nil {
		return nil, fmt.Errorf("indicators %s: %w", inst.Symbol, err)
	}
	events := strategy.TrackTrades(inst, frame, rules)
	if err := strategy.ValidateTrades(events); err != nil {
		return nil, fmt.Errorf("trade log %s: %w", inst.Symbol, err)
	}
	return events, nil
}

func (r *Runner) evaluateBreakout(ctx context.Context, inst model.Instrument, rules strategy.BreakoutRules, from, to, asOf time.Time) (*model.BreakoutReport, error) {
	series, err := r.Source.Collect(ctx, inst, from, to)
	if err != nil {
		return nil, err
	}
	frame, err := calculator.ComputeIndicators(series, r.Indicators)
	if err != nil {
		return nil, fmt.Errorf("indicators %s: %w", inst.Symbol, err)
	}
	return strategy.EvaluateBreakout(series, frame, rules, asOf)
}

// each fans fn out over a bounded pool. Workers never return an error so a
// failing instrument cannot cancel its siblings.
func (r *Runner) each(ctx context.Context, instruments []model.Instrument, job string, mu *sync.Mutex, sum *Summary,
	fn func(context.Context, model.Instrument) error) error {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, inst := range instruments {
		if gctx.Err() != nil {
			break
		}
		inst := inst
		g.Go(func() error {
			start := time.Now()
			err := fn(gctx, inst)
			kind := model.FailureKind(err)
			r.Metrics.ObserveInstrument(job, kind, time.Since(start))
			if err == nil {
				return nil
			}

			log.Printf("[WARN] run=%s instrument=%s kind=%s: %v", sum.RunID, inst.Symbol, kind, err)
			mu.Lock()
			sum.Failures = append(sum.Failures, Failure{Instrument: inst, Kind: kind, Err: err})
			mu.Unlock()
			if rerr := r.Recorder.RecordFailure(sum.RunID, &recorder.FailureEvent{
				Symbol:        inst.Symbol,
				InstrumentKey: inst.InstrumentKey,
				Kind:          kind,
				Message:       err.Error(),
			}); rerr != nil {
				log.Printf("[WARN] run=%s record failure: %v", sum.RunID, rerr)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(sum.Failures, func(i, j int) bool {
		return sum.Failures[i].Instrument.Symbol < sum.Failures[j].Instrument.Symbol
	})
	return ctx.Err()
}

func (r *Runner) begin(job string, instruments []model.Instrument) Summary {
	if r.Recorder == nil {
		r.Recorder = recorder.NewNoopRecorder()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return Summary{
		RunID:       uuid.NewString(),
		Job:         job,
		StartedAt:   r.now(),
		Instruments: len(instruments),
	}
}

func (r *Runner) finish(sum *Summary, results int) {
	sum.FinishedAt = r.now()
	log.Printf("[INFO] run=%s job=%s done: %d/%d ok, %d results in %v",
		sum.RunID, sum.Job, sum.Succeeded(), sum.Instruments, results, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))

	r.Metrics.ObserveRun(sum.Job, sum.StartedAt, sum.FinishedAt)
	if err := r.Recorder.RecordRun(&recorder.Run{
		ID:          sum.RunID,
		Job:         sum.Job,
		Source:      r.SourceName,
		StartedAt:   sum.StartedAt,
		FinishedAt:  sum.FinishedAt,
		Instruments: sum.Instruments,
		Succeeded:   sum.Succeeded(),
		Failed:      len(sum.Failures),
		Results:     results,
	}); err != nil {
		log.Printf("[WARN] run=%s record run: %v", sum.RunID, err)
	}
}

func (r *Runner) alertSince() time.Time {
	if !r.AlertSince.IsZero() {
		return r.AlertSince
	}
	now := r.now()
	if markethours.IsTradingDay(now) {
		return markethours.Date(now)
	}
	return markethours.PreviousTradingDay(now)
}

func (r *Runner) notifyTrades(ctx context.Context, res *TradeResult) {
	if r.Notifier == nil {
		return
	}
	since := r.alertSince()
	for _, e := range res.Events {
		if e.Time.Before(since) {
			continue
		}
		if msg := notifier.FormatTradeAlert(e); msg != "" {
			r.send(ctx, msg)
		}
	}
	r.notifyFailures(ctx, res.Failures)
	r.send(ctx, notifier.FormatTradeSummary(res.FinishedAt, len(res.Events)))
}

func (r *Runner) notifyBreakout(ctx context.Context, res *BreakoutResult, asOf time.Time) {
	if r.Notifier == nil {
		return
	}
	r.notifyFailures(ctx, res.Failures)
	r.send(ctx, notifier.FormatBreakoutDigest(asOf, res.Reports))
}

func (r *Runner) notifyFailures(ctx context.Context, failures []Failure) {
	for _, f := range failures {
		r.send(ctx, notifier.FormatFailure(f.Instrument.Symbol, f.Err))
	}
}

func (r *Runner) send(ctx context.Context, msg string) {
	if err := r.Notifier.SendWithRetry(ctx, msg, r.NotifyRetries); err != nil {
		log.Printf("[WARN] notification failed: %v", err)
	}
}
