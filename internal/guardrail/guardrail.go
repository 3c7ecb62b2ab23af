// Package guardrail limits how many signals of a daily table become trades.
package guardrail

import (
	"math"
	"sort"

	"SignalSentinel/internal/model"
)

const (
	// DefaultConfidenceThreshold applies when the filter is used on its own.
	DefaultConfidenceThreshold = 0.6
	// WorkflowConfidenceThreshold is the lower bar used by scheduled scans.
	WorkflowConfidenceThreshold = 0.3
	// DefaultMaxPositionsPerDay caps the trades kept from one table.
	DefaultMaxPositionsPerDay = 3
)

// Config holds the guardrail limits.
type Config struct {
	ConfidenceThreshold float64
	MaxPositionsPerDay  int
}

// DefaultConfig returns the standalone defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxPositionsPerDay:  DefaultMaxPositionsPerDay,
	}
}

// Candidate is a row that may carry a trade.
type Candidate interface {
	IsTrade() bool
}

// Scored is a Candidate ranked by confidence.
type Scored interface {
	Candidate
	Score() float64
}

var (
	_ Scored    = model.ScoredRow{}
	_ Candidate = model.SignalRow{}
)

// Stats counts what a filter pass did.
type Stats struct {
	Trades             int
	DroppedByThreshold int
	DroppedByCap       int
	Kept               int
	PassedThrough      int
}

// Apply keeps the most confident trades and passes every no-trade row through.
// The result lists the kept trades by descending confidence (ties keep input
// order) followed by the no-trade rows in input order.
func Apply[R Scored](rows []R, cfg Config) []R {
	out, _ := Explain(rows, cfg)
	return out
}

// Explain is Apply with the counts of dropped rows.
func Explain[R Scored](rows []R, cfg Config) ([]R, Stats) {
	trades, rest := split(rows)
	st := Stats{Trades: len(trades), PassedThrough: len(rest)}
	if len(trades) == 0 {
		return append([]R(nil), rows...), st
	}

	eligible := trades[:0:0]
	for _, r := range trades {
		// NaN fails this comparison and is dropped with the low scores.
		if score := r.Score(); !math.IsNaN(score) && score >= cfg.ConfidenceThreshold {
			eligible = append(eligible, r)
		}
	}
	st.DroppedByThreshold = len(trades) - len(eligible)

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score() > eligible[j].Score()
	})
	kept := capped(eligible, cfg.MaxPositionsPerDay)
	st.DroppedByCap = len(eligible) - len(kept)
	st.Kept = len(kept)

	return append(kept, rest...), st
}

// ApplyByOrder caps trades in input order when no confidence is available.
func ApplyByOrder[R Candidate](rows []R, cfg Config) []R {
	out, _ := ExplainByOrder(rows, cfg)
	return out
}

// ExplainByOrder is ApplyByOrder with the counts of dropped rows.
func ExplainByOrder[R Candidate](rows []R, cfg Config) ([]R, Stats) {
	trades, rest := split(rows)
	st := Stats{Trades: len(trades), PassedThrough: len(rest)}
	if len(trades) == 0 {
		return append([]R(nil), rows...), st
	}
	kept := capped(trades, cfg.MaxPositionsPerDay)
	st.DroppedByCap = len(trades) - len(kept)
	st.Kept = len(kept)
	return append(kept, rest...), st
}

func split[R Candidate](rows []R) (trades, rest []R) {
	for _, r := range rows {
		if r.IsTrade() {
			trades = append(trades, r)
		} else {
			rest = append(rest, r)
		}
	}
	return trades, rest
}

func capped[R any](rows []R, limit int) []R {
	if limit < 0 {
		limit = 0
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	// fresh backing array so appending the pass-through rows never aliases
	return append(make([]R, 0, len(rows)), rows...)
}
