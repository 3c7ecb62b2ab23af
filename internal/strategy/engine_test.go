package strategy

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// dipAndRecover is flat at 100, falls to 85 and then climbs back by 0.5 per bar.
// RSI(14) sits at 0 through the fall and first exceeds 30 at index 27.
func dipAndRecover() []float64 {
	var closes []float64
	for i := 0; i < 10; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 95-float64(i))
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 85+float64(i)*0.5)
	}
	return closes
}

func signalIndexes(rows []model.SignalRow, want model.Signal) []int {
	var idx []int
	for i, r := range rows {
		if r.Signal == want {
			idx = append(idx, i)
		}
	}
	return idx
}

func macdTrend() TrendConfig {
	tc := DefaultTrendConfig()
	tc.Kind = TrendMACD
	return tc
}

func TestGenerate_CenterlineBuyInUptrend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trend = macdTrend()

	rows, err := GenerateCloses(linear(50, 100, 2), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	last := rows[len(rows)-1]
	if last.Signal != model.SignalBuy {
		t.Errorf("expected buy, got %v", last.Signal)
	}
	if last.RSI <= 50 {
		t.Errorf("expected RSI > 50, got %.2f", last.RSI)
	}
	if last.TrendSide != model.SideUp {
		t.Errorf("expected up trend, got %v", last.TrendSide)
	}
	if buys := signalIndexes(rows, model.SignalBuy); len(buys) != 36 || buys[0] != 14 {
		t.Errorf("expected buys on every bar from 14, got %v", buys)
	}
}

func TestGenerate_CenterlineSellInDowntrend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trend = macdTrend()

	rows, err := GenerateCloses(linear(50, 100, -0.5), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	last := rows[len(rows)-1]
	if last.Signal != model.SignalSell || last.RSI >= 50 || last.TrendSide != model.SideDown {
		t.Errorf("expected sell with RSI < 50 and down trend, got %+v", last)
	}
}

func TestGenerate_ReversalCrossFiresOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeReversal

	rows, err := GenerateCloses(dipAndRecover(), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	buys := signalIndexes(rows, model.SignalBuy)
	if len(buys) != 1 || buys[0] != 27 {
		t.Fatalf("expected a single buy at index 27, got %v", buys)
	}
	if rows[26].RSI > 30 || rows[27].RSI <= 30 {
		t.Errorf("expected RSI to cross 30 between 26 and 27, got %.3f -> %.3f", rows[26].RSI, rows[27].RSI)
	}
	if sells := signalIndexes(rows, model.SignalSell); len(sells) != 0 {
		t.Errorf("expected no sells, got %v", sells)
	}
}

func TestGenerate_ReversalCrossDownFromOverbought(t *testing.T) {
	closes := dipAndRecover()
	for i := range closes {
		closes[i] = 200 - closes[i]
	}
	cfg := DefaultConfig()
	cfg.Mode = ModeReversal

	rows, err := GenerateCloses(closes, cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	sells := signalIndexes(rows, model.SignalSell)
	if len(sells) != 1 || sells[0] != 27 {
		t.Fatalf("expected a single sell at index 27, got %v", sells)
	}
}

func TestGenerate_ReversalLevelFiresWhileOversold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeReversal
	cfg.RequireCross = false

	rows, err := GenerateCloses(dipAndRecover(), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	buys := signalIndexes(rows, model.SignalBuy)
	if len(buys) != 13 || buys[0] != 14 || buys[12] != 26 {
		t.Fatalf("expected buys on 14..26, got %v", buys)
	}
}

func TestGenerate_WarmupNeverSignals(t *testing.T) {
	cfg := DefaultConfig()
	rows, err := GenerateCloses(linear(30, 100, -1), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	for i := 0; i < cfg.Period; i++ {
		if !math.IsNaN(rows[i].RSI) || rows[i].Signal != model.SignalNone {
			t.Fatalf("index %d: expected undefined RSI and no signal, got %+v", i, rows[i])
		}
	}
}

func TestGenerate_SMATrendWarmup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trend.Kind = TrendSMA

	rows, err := GenerateCloses(linear(70, 100, -0.5), cfg)
	if err != nil {
		t.Fatalf("GenerateCloses: %v", err)
	}
	sells := signalIndexes(rows, model.SignalSell)
	if len(sells) == 0 || sells[0] != cfg.Trend.SMAWindow-1 {
		t.Fatalf("expected first sell once the SMA is defined (index %d), got %v", cfg.Trend.SMAWindow-1, sells)
	}
}

func TestGenerate_UnknownModeIsConfigError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Mode(42)

	rows, err := GenerateCloses(linear(20, 100, 1), cfg)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Key != "rsi.mode" {
		t.Errorf("expected rsi.mode key, got %q", cfgErr.Key)
	}
	if rows != nil {
		t.Errorf("expected no partial output, got %d rows", len(rows))
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	closes := make([]float64, 150)
	price := 100.0
	for i := range closes {
		price += rng.NormFloat64()
		closes[i] = price
	}
	input := append([]float64(nil), closes...)

	for _, mode := range []Mode{ModeCenterline, ModeReversal} {
		cfg := DefaultConfig()
		cfg.Mode = mode
		cfg.Trend = macdTrend()

		first, err := GenerateCloses(closes, cfg)
		if err != nil {
			t.Fatalf("GenerateCloses: %v", err)
		}
		second, _ := GenerateCloses(closes, cfg)
		for i := range first {
			a, b := first[i], second[i]
			if math.Float64bits(a.RSI) != math.Float64bits(b.RSI) || a.Signal != b.Signal ||
				a.TrendSide != b.TrendSide || a.Close != b.Close {
				t.Fatalf("%v: row %d differs between runs: %+v vs %+v", mode, i, a, b)
			}
		}
	}
	for i := range closes {
		if closes[i] != input[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestGenerate_CarriesBarTimes(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := model.PriceSeries{Symbol: "ES=F"}
	for i, c := range linear(20, 100, 1) {
		series.Bars = append(series.Bars, model.OHLCV{Time: start.AddDate(0, 0, i), Close: c})
	}
	rows, err := Generate(series, DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rows) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(rows))
	}
	if !rows[19].Time.Equal(start.AddDate(0, 0, 19)) {
		t.Errorf("expected last row time %v, got %v", start.AddDate(0, 0, 19), rows[19].Time)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"centerline", ModeCenterline, true},
		{" Reversal ", ModeReversal, true},
		{"CENTERLINE", ModeCenterline, true},
		{"momentum", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseMode(%q): expected error", tt.in)
		}
	}
}
