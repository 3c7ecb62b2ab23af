// Package scanner runs the signal pipeline over every configured ticker and
// builds the daily recommendation table.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/guardrail"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/publisher"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
)

// ErrAllFailed is returned when no ticker produced a row.
var ErrAllFailed = errors.New("every ticker failed")

// TickerError records why one ticker was left out of a run.
type TickerError struct {
	Ticker  string
	Skipped bool // no data rather than a failure
	Err     error
}

func (e TickerError) Error() string { return e.Ticker + ": " + e.Err.Error() }

// Report is the outcome of one scan.
type Report struct {
	RunID  string
	Start  time.Time
	End    time.Time
	Rows   []model.ScoredRow // latest row of each ticker, in ticker order
	Kept   []model.ScoredRow // trades accepted by the guardrail, most confident first
	Stats  guardrail.Stats
	Errors []TickerError
	Run    *model.RunLog
}

// Options wires a Scanner.
type Options struct {
	Tickers     []string
	Collector   *collector.Collector
	Strategy    strategy.Config
	Guardrail   guardrail.Config
	Concurrency int
	Recorder    recorder.Recorder
	Publisher   publisher.Publisher
	Metrics     *metrics.Metrics
}

// Scanner evaluates the ticker universe. Run may be called concurrently; each
// call works on its own table.
type Scanner struct {
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	mu   sync.Mutex
	last *Report
}

// New creates a Scanner. Nil recorder and publisher default to no-ops.
func New(opts Options, log zerolog.Logger) *Scanner {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Publisher == nil {
		opts.Publisher = publisher.Noop{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Scanner{
		opts: opts,
		log:  log.With().Str("component", "scanner").Logger(),
		now:  time.Now,
	}
}

// Evaluate runs collect, generate and score for one ticker and returns its latest row.
func (s *Scanner) Evaluate(ctx context.Context, ticker string) (model.ScoredRow, error) {
	series, err := s.opts.Collector.Collect(ctx, ticker)
	if err != nil {
		return model.ScoredRow{}, err
	}
	rows, err := strategy.Generate(series, s.opts.Strategy)
	if err != nil {
		return model.ScoredRow{}, err
	}
	if len(rows) == 0 {
		return model.ScoredRow{}, fmt.Errorf("%s: %w", ticker, collector.ErrNoData)
	}
	latest := rows[len(rows)-1:]
	return strategy.Score(ticker, latest, s.opts.Strategy)[0], nil
}

// Run scans every ticker, applies the guardrail across the resulting table,
// then records, publishes and reports the outcome.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	start := s.now()
	report := &Report{RunID: model.RunID(start), Start: start}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("tickers", len(s.opts.Tickers)).Msg("scan started")

	results := make([]*model.ScoredRow, len(s.opts.Tickers))
	failures := make([]*TickerError, len(s.opts.Tickers))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, ticker := range s.opts.Tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			row, err := s.Evaluate(ctx, ticker)
			if err != nil {
				failures[i] = &TickerError{Ticker: ticker, Skipped: errors.Is(err, collector.ErrNoData), Err: err}
				log.Warn().Err(err).Str("ticker", ticker).Msg("ticker left out")
				return nil
			}
			results[i] = &row
			return nil
		})
	}
	_ = g.Wait() // failures are collected per ticker; workers never return an error

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", report.RunID, err)
	}

	for i := range s.opts.Tickers {
		if results[i] != nil {
			report.Rows = append(report.Rows, *results[i])
		}
		if failures[i] != nil {
			report.Errors = append(report.Errors, *failures[i])
		}
	}

	out, st := guardrail.Explain(report.Rows, s.opts.Guardrail)
	report.Kept = out[:st.Kept]
	report.Stats = st
	report.End = s.now()
	report.Run = s.runLog(report)

	var errs []error
	if err := s.opts.Recorder.RecordSignals(report.RunID, report.Rows, report.Kept); err != nil {
		errs = append(errs, fmt.Errorf("record signals: %w", err))
	}
	if err := s.opts.Recorder.RecordRun(report.Run); err != nil {
		errs = append(errs, fmt.Errorf("record run: %w", err))
	}
	if err := s.opts.Publisher.Publish(ctx, report.RunID, report.Kept); err != nil {
		errs = append(errs, fmt.Errorf("publish: %w", err))
	}
	s.opts.Metrics.ObserveRun(report.Run, report.Kept, st)

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	log.Info().
		Str("status", report.Run.Status).
		Int("rows", len(report.Rows)).
		Int("kept", len(report.Kept)).
		Int("dropped_threshold", st.DroppedByThreshold).
		Int("dropped_cap", st.DroppedByCap).
		Dur("took", report.End.Sub(report.Start)).
		Msg("scan finished")

	if report.Run.Status == model.RunFailed && len(s.opts.Tickers) > 0 {
		errs = append(errs, ErrAllFailed)
	}
	return report, errors.Join(errs...)
}

// Last returns the most recent report, or nil before the first run.
func (s *Scanner) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scanner) runLog(r *Report) *model.RunLog {
	run := &model.RunLog{
		RunID:            r.RunID,
		Date:             r.End.Format("2006-01-02"),
		StartTime:        r.Start,
		EndTime:          r.End,
		TickersProcessed: len(r.Rows),
	}
	var notes []string
	for _, e := range r.Errors {
		if e.Skipped {
			run.TickersSkipped++
		} else {
			run.TickersError++
		}
		notes = append(notes, e.Error())
	}

	switch {
	case len(r.Rows) == 0 && len(r.Errors) > 0:
		run.Status = model.RunFailed
	case run.TickersError > 0:
		run.Status = model.RunPartial
	default:
		run.Status = model.RunSuccess
	}

	run.Notes = fmt.Sprintf("%d kept of %d trades", r.Stats.Kept, r.Stats.Trades)
	if len(notes) > 0 {
		run.Notes += "; " + strings.Join(notes, "; ")
	}
	return run
}
