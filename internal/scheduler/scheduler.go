package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/scanner"
)

var errScanRunning = errors.New("scan already running")

// Runner is the scan pipeline driven by the scheduler.
type Runner interface {
	Run(ctx context.Context) (*scanner.Report, error)
	Evaluate(ctx context.Context, ticker string) (model.ScoredRow, error)
	Last() *scanner.Report
}

// Sender delivers messages to the operator.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// History answers /last after a restart, before this process has scanned.
type History interface {
	LastRun() (*model.RunLog, error)
}

// Scheduler manages the cron tasks and operator commands.
type Scheduler struct {
	Cron    *cron.Cron
	Scanner Runner
	Sender  Sender  // nil disables notifications
	History History // optional
	Ctx     context.Context

	log      zerolog.Logger
	running  sync.Mutex
	inflight sync.WaitGroup // scans started by commands
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc Runner, sender Sender, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		Scanner: sc,
		Sender:  sender,
		Ctx:     ctx,
		log:     log,
	}
}

// RegisterAll registers the daily scan.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyScan); err != nil {
		return fmt.Errorf("register daily scan: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running scans to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.inflight.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() (*scanner.Report, error) {
	return s.scan()
}

func (s *Scheduler) dailyScan() {
	s.scan()
}

// scan runs one scan unless another is in progress and reports the outcome.
func (s *Scheduler) scan() (*scanner.Report, error) {
	if !s.running.TryLock() {
		s.log.Warn().Msg("scan already running, skipping")
		return nil, errScanRunning
	}
	defer s.running.Unlock()
	return s.runLocked()
}

// runLocked runs the scan; the caller holds s.running.
func (s *Scheduler) runLocked() (*scanner.Report, error) {
	s.log.Info().Msg("running daily scan")
	report, err := s.Scanner.Run(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("daily scan")
	}
	if report == nil {
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		return nil, err
	}
	s.trySend(notifier.FormatDailyReport(report))
	return report, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/scan":
		if !s.running.TryLock() {
			return "⏳ A scan is already running."
		}
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			defer s.running.Unlock()
			s.runLocked()
		}()
		return "🔎 Scan started, the report follows when it finishes."
	case "/last":
		return notifier.FormatRunStatus(s.lastRun())
	case "/signal":
		if len(fields) < 2 {
			return "Usage: /signal TICKER"
		}
		row, err := s.Scanner.Evaluate(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", fields[1], err)
		}
		return notifier.FormatSignal(row)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) lastRun() *model.RunLog {
	if r := s.Scanner.Last(); r != nil {
		return r.Run
	}
	if s.History == nil {
		return nil
	}
	run, err := s.History.LastRun()
	if err != nil {
		s.log.Error().Err(err).Msg("load last run")
		return nil
	}
	return run
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
