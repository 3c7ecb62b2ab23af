package strategy

import (
	"fmt"
	"strings"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// TrendKind selects the trend filter applied to RSI signals.
type TrendKind int

const (
	TrendNone TrendKind = iota
	TrendMACD
	TrendSMA
)

var trendNames = map[TrendKind]string{
	TrendNone: "none",
	TrendMACD: "macd",
	TrendSMA:  "sma",
}

func (k TrendKind) String() string {
	if name, ok := trendNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TrendKind(%d)", int(k))
}

// ParseTrendKind maps a trend.type value to a TrendKind, case-insensitively.
func ParseTrendKind(s string) (TrendKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TrendNone, nil
	case "macd":
		return TrendMACD, nil
	case "sma":
		return TrendSMA, nil
	default:
		return 0, &model.ConfigError{Key: "trend.type", Value: s, Reason: "must be one of none, macd, sma"}
	}
}

func (k TrendKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TrendKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTrendKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TrendConfig parameterizes the trend classifier.
type TrendConfig struct {
	Kind       TrendKind
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	SMAWindow  int
}

// DefaultTrendConfig returns the classic MACD(12,26,9) / SMA(50) parameters with
// the filter disabled.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Kind:       TrendNone,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		SMAWindow:  50,
	}
}

// Warmup returns how many leading labels rest on an undefined indicator.
func (c TrendConfig) Warmup() int {
	if c.Kind == TrendSMA && c.SMAWindow > 1 {
		return c.SMAWindow - 1
	}
	return 0
}

// Classify labels every bar as up, down or neutral.
//
//	none: every bar neutral
//	macd: up when the MACD line is at or above its signal line, else down
//	sma:  up when the close is at or above its SMA, else down
func Classify(closes []float64, cfg TrendConfig) ([]model.Side, error) {
	sides := make([]model.Side, len(closes))
	switch cfg.Kind {
	case TrendNone:
		for i := range sides {
			sides[i] = model.SideNeutral
		}
	case TrendMACD:
		line, signal, _ := calculator.MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		for i := range sides {
			sides[i] = upOrDown(line[i] >= signal[i])
		}
	case TrendSMA:
		sma := calculator.SMA(closes, cfg.SMAWindow)
		for i := range sides {
			sides[i] = upOrDown(closes[i] >= sma[i])
		}
	default:
		return nil, &model.ConfigError{Key: "trend.type", Value: cfg.Kind.String(), Reason: "unknown trend type"}
	}
	return sides, nil
}

func upOrDown(up bool) model.Side {
	if up {
		return model.SideUp
	}
	return model.SideDown
}
