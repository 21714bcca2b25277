package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/notifier"
	"NiftyScreener/internal/recorder"
)

// Job runs one batch. Alerts and summaries are sent by the job itself.
type Job func(ctx context.Context) error

// Scheduler manages the cron tasks and chat commands of serve mode.
type Scheduler struct {
	Cron         *cron.Cron
	Recorder     recorder.Recorder
	Notifier     notifier.Notifier // optional
	SkipHolidays bool
	Ctx          context.Context

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]bool
	now     func() time.Time
}

// NewScheduler creates a Scheduler whose cron specs are read in IST.
func NewScheduler(ctx context.Context, rec recorder.Recorder, n notifier.Notifier, skipHolidays bool) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds(), cron.WithLocation(markethours.IST)),
		Recorder:     rec,
		Notifier:     n,
		SkipHolidays: skipHolidays,
		Ctx:          ctx,
		jobs:         make(map[string]Job),
		running:      make(map[string]bool),
		now:          time.Now,
	}
}

// Register adds a named job on a six-field cron spec.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.run(name) }); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	s.mu.Lock()
	s.jobs[name] = job
	s.mu.Unlock()
	log.Printf("[INFO] registered %s task: %s", name, spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a job immediately, ignoring the holiday check.
func (s *Scheduler) RunNow(name string) error {
	return s.execute(s.Ctx, name)
}

func (s *Scheduler) run(name string) {
	if s.SkipHolidays && !markethours.IsTradingDay(s.now()) {
		log.Printf("[INFO] skipping %s task: %s", name, markethours.StatusString(s.now()))
		return
	}
	if err := s.execute(s.Ctx, name); err != nil {
		log.Printf("[ERROR] %s task: %v", name, err)
		s.trySend(fmt.Sprintf("❌ %s task failed: %v", name, err))
	}
}

// execute runs a job unless it is already running.
func (s *Scheduler) execute(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown task %q", name)
	}
	if s.running[name] {
		s.mu.Unlock()
		return fmt.Errorf("%s task already running", name)
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	log.Printf("[INFO] running %s task", name)
	return job(ctx)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // strip /cmd@BotName
	}
	switch cmd {
	case "/trades", "/breakout":
		name := strings.TrimPrefix(cmd, "/")
		if err := s.execute(ctx, name); err != nil {
			return fmt.Sprintf("❌ %s task failed: %v", name, err)
		}
		return ""
	case "/status":
		runs := make(map[string]*recorder.Run)
		for _, job := range []string{recorder.JobTrades, recorder.JobBreakout} {
			run, err := s.Recorder.LastRun(job)
			if err != nil {
				log.Printf("[WARN] last %s run: %v", job, err)
				continue
			}
			runs[job] = run
		}
		return notifier.FormatStatus(s.now(), runs)
	default:
		return "Available commands:\n• /trades: run the mean-reversion scan\n• /breakout: refresh GTT levels\n• /status: market status and last runs"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
