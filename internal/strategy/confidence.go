package strategy

import (
	"math"

	"SignalSentinel/internal/model"
)

const (
	// centerlineScale is the RSI distance from the centerline worth full confidence.
	centerlineScale = 25.0
	// reversalScale is the RSI distance from an extreme at which confidence reaches zero.
	reversalScale = 30.0

	alignedBoost   = 1.2
	opposedPenalty = 0.5
)

// Confidence scores a signal in [0,1] from its RSI distance to the mode's
// reference level, then boosts or penalizes it by trend agreement.
func Confidence(rsi float64, side model.Side, signal model.Signal, cfg Config) float64 {
	if signal == model.SignalNone {
		return 0
	}

	var base float64
	switch cfg.Mode {
	case ModeCenterline:
		if signal == model.SignalBuy {
			base = math.Min((rsi-cfg.Centerline)/centerlineScale, 1.0)
		} else {
			base = math.Min((cfg.Centerline-rsi)/centerlineScale, 1.0)
		}
	case ModeReversal:
		if signal == model.SignalBuy {
			base = math.Max(1.0-math.Abs(rsi-cfg.Oversold)/reversalScale, 0.0)
		} else {
			base = math.Max(1.0-math.Abs(rsi-cfg.Overbought)/reversalScale, 0.0)
		}
	}

	switch agreement := int(signal) * int(side); {
	case agreement > 0:
		base *= alignedBoost
	case agreement < 0:
		base *= opposedPenalty
	}

	return math.Max(math.Min(base, 1.0), 0.0)
}

// Score attaches a confidence and the ticker to every row.
func Score(ticker string, rows []model.SignalRow, cfg Config) []model.ScoredRow {
	scored := make([]model.ScoredRow, len(rows))
	for i, r := range rows {
		scored[i] = model.ScoredRow{
			Ticker:     ticker,
			SignalRow:  r,
			Confidence: Confidence(r.RSI, r.TrendSide, r.Signal, cfg),
		}
	}
	return scored
}
