package strategy

import (
	"fmt"
	"strings"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// Mode selects how RSI values turn into signals.
type Mode int

const (
	// ModeCenterline buys above the centerline and sells below it.
	ModeCenterline Mode = iota
	// ModeReversal trades RSI exits from the oversold and overbought zones.
	ModeReversal
)

func (m Mode) String() string {
	switch m {
	case ModeCenterline:
		return "centerline"
	case ModeReversal:
		return "reversal"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps an rsi.mode value to a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "centerline":
		return ModeCenterline, nil
	case "reversal":
		return ModeReversal, nil
	default:
		return 0, &model.ConfigError{Key: "rsi.mode", Value: s, Reason: "must be centerline or reversal"}
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Default RSI parameters.
const (
	DefaultPeriod     = 14
	DefaultCenterline = 50.0
	DefaultOversold   = 30.0
	DefaultOverbought = 70.0
)

// Config is the immutable parameter set of one signal run.
type Config struct {
	Mode         Mode
	Period       int
	Centerline   float64
	Oversold     float64
	Overbought   float64
	RequireCross bool
	Trend        TrendConfig
}

// DefaultConfig returns centerline mode with RSI(14) and no trend filter.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeCenterline,
		Period:       DefaultPeriod,
		Centerline:   DefaultCenterline,
		Oversold:     DefaultOversold,
		Overbought:   DefaultOverbought,
		RequireCross: true,
		Trend:        DefaultTrendConfig(),
	}
}

// Generate builds the signal table of a price series.
func Generate(series model.PriceSeries, cfg Config) ([]model.SignalRow, error) {
	rows, err := GenerateCloses(series.Closes(), cfg)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Time = series.Bars[i].Time
	}
	return rows, nil
}

// GenerateCloses builds the signal table of a bare close series.
// Bars whose RSI or trend indicator is still warming up never carry a signal.
func GenerateCloses(closes []float64, cfg Config) ([]model.SignalRow, error) {
	var decide func(i int, rsi []float64, sides []model.Side) model.Signal
	switch cfg.Mode {
	case ModeCenterline:
		decide = func(i int, rsi []float64, sides []model.Side) model.Signal {
			return centerlineSignal(rsi[i], sides[i], cfg.Centerline)
		}
	case ModeReversal:
		decide = func(i int, rsi []float64, _ []model.Side) model.Signal {
			if !cfg.RequireCross {
				return levelSignal(rsi[i], cfg.Oversold, cfg.Overbought)
			}
			if i == 0 {
				return model.SignalNone
			}
			return crossSignal(rsi[i-1], rsi[i], cfg.Oversold, cfg.Overbought)
		}
	default:
		return nil, &model.ConfigError{Key: "rsi.mode", Value: cfg.Mode.String(), Reason: "unknown RSI mode"}
	}

	sides, err := Classify(closes, cfg.Trend)
	if err != nil {
		return nil, err
	}
	rsi := calculator.RSIWilder(closes, cfg.Period)
	warmup := cfg.Trend.Warmup()

	rows := make([]model.SignalRow, len(closes))
	for i, c := range closes {
		rows[i] = model.SignalRow{
			Close:     c,
			RSI:       rsi[i],
			TrendSide: sides[i],
			Signal:    model.SignalNone,
		}
		if i < warmup || !calculator.IsDefined(rsi[i]) {
			continue
		}
		rows[i].Signal = decide(i, rsi, sides)
	}
	return rows, nil
}

func centerlineSignal(rsi float64, side model.Side, centerline float64) model.Signal {
	switch {
	case rsi > centerline && side >= model.SideNeutral:
		return model.SignalBuy
	case rsi < centerline && side <= model.SideNeutral:
		return model.SignalSell
	default:
		return model.SignalNone
	}
}

// crossSignal fires only on the bar where RSI leaves an extreme zone.
// An undefined previous value never counts as a cross.
func crossSignal(prev, cur, oversold, overbought float64) model.Signal {
	switch {
	case prev <= oversold && cur > oversold:
		return model.SignalBuy
	case prev >= overbought && cur < overbought:
		return model.SignalSell
	default:
		return model.SignalNone
	}
}

func levelSignal(rsi, oversold, overbought float64) model.Signal {
	switch {
	case rsi <= oversold:
		return model.SignalBuy
	case rsi >= overbought:
		return model.SignalSell
	default:
		return model.SignalNone
	}
}
