package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NiftyScreener/internal/model"
)

// Metrics holds the Prometheus collectors for batch runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec   // labels: job
	InstrumentsTotal   *prometheus.CounterVec   // labels: job, outcome
	FailuresTotal      *prometheus.CounterVec   // labels: job, kind
	TradeEventsTotal   *prometheus.CounterVec   // labels: action
	BreakoutFlagsTotal *prometheus.CounterVec   // labels: flag
	RunDuration        *prometheus.HistogramVec // labels: job
	InstrumentDuration *prometheus.HistogramVec // labels: job
	LastRunTimestamp   *prometheus.GaugeVec     // labels: job
}

// New builds a Metrics on its own registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_runs_total",
			Help: "Completed batch runs",
		}, []string{"job"}),
		InstrumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_instruments_total",
			Help: "Instruments evaluated, by outcome (ok, failed)",
		}, []string{"job", "outcome"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_failures_total",
			Help: "Per-instrument failures by kind",
		}, []string{"job", "kind"}),
		TradeEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_trade_events_total",
			Help: "Trade log rows emitted by action",
		}, []string{"action"}),
		BreakoutFlagsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_breakout_flags_total",
			Help: "Breakout reports by GTT update flag",
		}, []string{"flag"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_run_duration_seconds",
			Help:    "Wall time of a batch run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		InstrumentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_instrument_duration_seconds",
			Help:    "Fetch plus evaluation latency per instrument",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		LastRunTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "screener_last_run_timestamp_seconds",
			Help: "Unix time the last run of a job finished",
		}, []string{"job"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.InstrumentsTotal,
		m.FailuresTotal,
		m.TradeEventsTotal,
		m.BreakoutFlagsTotal,
		m.RunDuration,
		m.InstrumentDuration,
		m.LastRunTimestamp,
	)
	return m
}

// ObserveInstrument records one instrument outcome. kind is empty on success.
func (m *Metrics) ObserveInstrument(job, kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.InstrumentDuration.WithLabelValues(job).Observe(took.Seconds())
	if kind == "" {
		m.InstrumentsTotal.WithLabelValues(job, "ok").Inc()
		return
	}
	m.InstrumentsTotal.WithLabelValues(job, "failed").Inc()
	m.FailuresTotal.WithLabelValues(job, kind).Inc()
}

// ObserveTrades counts emitted trade rows by action.
func (m *Metrics) ObserveTrades(events []model.TradeEvent) {
	if m == nil {
		return
	}
	for _, e := range events {
		m.TradeEventsTotal.WithLabelValues(string(e.Action)).Inc()
	}
}

// ObserveBreakouts counts reports by flag. The empty flag is labelled "none".
func (m *Metrics) ObserveBreakouts(reports []model.BreakoutReport) {
	if m == nil {
		return
	}
	for _, r := range reports {
		flag := string(r.Flag)
		if flag == "" {
			flag = "none"
		}
		m.BreakoutFlagsTotal.WithLabelValues(flag).Inc()
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(job string, started, finished time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(job).Inc()
	m.RunDuration.WithLabelValues(job).Observe(finished.Sub(started).Seconds())
	m.LastRunTimestamp.WithLabelValues(job).Set(float64(finished.Unix()))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
