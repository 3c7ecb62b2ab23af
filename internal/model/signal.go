package model

import "time"

// Side is the per-bar trend label.
type Side int

const (
	SideDown    Side = -1
	SideNeutral Side = 0
	SideUp      Side = 1
)

func (s Side) String() string {
	switch s {
	case SideUp:
		return "up"
	case SideDown:
		return "down"
	default:
		return "neutral"
	}
}

// Signal is the discrete per-bar trading signal.
type Signal int

const (
	SignalSell Signal = -1
	SignalNone Signal = 0
	SignalBuy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// SignalRow is one row of the signal table, aligned with the price series.
// RSI is NaN while the indicator is warming up.
type SignalRow struct {
	Time      time.Time
	Close     float64
	RSI       float64
	TrendSide Side
	Signal    Signal
}

// IsTrade reports whether the row carries a buy or sell signal.
func (r SignalRow) IsTrade() bool { return r.Signal != SignalNone }

// ScoredRow is a SignalRow with its confidence and the ticker it belongs to.
type ScoredRow struct {
	Ticker string
	SignalRow
	Confidence float64
}

// Score returns the confidence used for guardrail ranking.
func (r ScoredRow) Score() float64 { return r.Confidence }
