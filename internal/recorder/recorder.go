package recorder

import (
	"errors"

	"SignalSentinel/internal/model"
)

// Recorder persists scan results for later analysis.
// Implementations serialize their own writes.
type Recorder interface {
	// RecordSignals stores the daily table of a run; rows also present in
	// kept are flagged as accepted by the guardrail.
	RecordSignals(runID string, rows, kept []model.ScoredRow) error
	RecordRun(run *model.RunLog) error
	Close() error
}

// keptSet indexes kept rows by ticker. A daily table holds one row per ticker.
func keptSet(kept []model.ScoredRow) map[string]bool {
	set := make(map[string]bool, len(kept))
	for _, r := range kept {
		if r.IsTrade() {
			set[r.Ticker] = true
		}
	}
	return set
}

// Multi fans every call out to several recorders and joins their errors.
type Multi []Recorder

func (m Multi) RecordSignals(runID string, rows, kept []model.ScoredRow) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordSignals(runID, rows, kept))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordRun(run *model.RunLog) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordRun(run))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
