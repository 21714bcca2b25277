package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NiftyScreener/internal/config"
	"NiftyScreener/internal/recorder"
	"NiftyScreener/internal/scheduler"
)

var (
	configPath string
	runOnStart bool

	rootCmd = &cobra.Command{
		Use:   "screener",
		Short: "NSE index and ETF screener",
		Long: `screener pulls daily candles for NSE index constituents and ETFs, runs the
mean-reversion tracker and the breakout (GTT) level tracker, and publishes
the results to Google Sheets, CSV or Parquet.`,
		SilenceUsage: true,
	}
	tradesCmd = &cobra.Command{
		Use:   "trades",
		Short: "Run the mean-reversion trade scan once",
		RunE:  runTradesCommand,
	}
	breakoutCmd = &cobra.Command{
		Use:   "breakout",
		Short: "Refresh breakout GTT levels once",
		RunE:  runBreakoutCommand,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run both jobs on their cron schedules and answer chat commands",
		RunE:  runServeCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "run both jobs immediately")
	rootCmd.AddCommand(tradesCmd, breakoutCmd, serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the app, hands it a signal-aware context and closes it.
func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runTradesCommand(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		return a.runTrades(ctx)
	})
}

func runBreakoutCommand(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		return a.runBreakout(ctx)
	})
}

func runServeCommand(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		cfg := a.cfg
		sched := scheduler.NewScheduler(ctx, a.recorder, a.runner.Notifier, cfg.Schedule.SkipHolidays)
		if err := sched.Register(recorder.JobTrades, cfg.Schedule.TradesCron, a.runTrades); err != nil {
			return err
		}
		if err := sched.Register(recorder.JobBreakout, cfg.Schedule.BreakoutCron, a.runBreakout); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Metrics.Addr != "" {
			go func() {
				if err := a.metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
					log.Printf("[ERROR] metrics server: %v", err)
				}
			}()
		}

		if a.telegram != nil {
			go a.telegram.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")
		}

		if runOnStart {
			log.Println("[INFO] run-on-start enabled, executing both jobs now")
			go func() {
				for _, job := range []string{recorder.JobTrades, recorder.JobBreakout} {
					if err := sched.RunNow(job); err != nil {
						log.Printf("[ERROR] %s task: %v", job, err)
					}
				}
			}()
		}

		log.Println("[INFO] screener is running. Press Ctrl+C to stop.")
		<-ctx.Done()
		log.Println("[INFO] shutdown signal received, stopping...")
		return nil
	})
}
