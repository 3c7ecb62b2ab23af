package guardrail

import (
	"math"
	"testing"

	"SignalSentinel/internal/model"
)

func row(ticker string, sig model.Signal, conf float64) model.ScoredRow {
	return model.ScoredRow{
		Ticker:     ticker,
		SignalRow:  model.SignalRow{Signal: sig, RSI: 50},
		Confidence: conf,
	}
}

func tickers(rows []model.ScoredRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Ticker
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply_ThresholdAndCap(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalBuy, 0.9),
		row("B", model.SignalSell, 0.5),
		row("C", model.SignalBuy, 0.25),
		row("D", model.SignalBuy, 0.35),
		row("E", model.SignalSell, 0.8),
		row("F", model.SignalNone, 0),
	}
	cfg := Config{ConfidenceThreshold: 0.3, MaxPositionsPerDay: 2}

	out, st := Explain(rows, cfg)
	if got := tickers(out); !equal(got, []string{"A", "E", "F"}) {
		t.Fatalf("expected [A E F], got %v", got)
	}
	if st.Trades != 5 || st.DroppedByThreshold != 1 || st.DroppedByCap != 2 || st.Kept != 2 || st.PassedThrough != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestApply_CapKeepsHighestConfidence(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalBuy, 0.9),
		row("B", model.SignalBuy, 0.8),
		row("C", model.SignalBuy, 0.7),
		row("D", model.SignalBuy, 0.6),
		row("E", model.SignalBuy, 0.5),
	}
	out := Apply(rows, Config{ConfidenceThreshold: 0, MaxPositionsPerDay: 3})
	if got := tickers(out); !equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("expected [A B C], got %v", got)
	}
}

func TestApply_ThresholdOnly(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalBuy, 0.5),
		row("B", model.SignalBuy, 0.25),
		row("C", model.SignalSell, 0.4),
		row("D", model.SignalBuy, 0.35),
		row("E", model.SignalNone, 0),
	}
	out := Apply(rows, Config{ConfidenceThreshold: 0.3, MaxPositionsPerDay: 10})
	trades := 0
	for _, r := range out {
		if r.IsTrade() {
			trades++
			if r.Confidence < 0.3 {
				t.Errorf("%s kept below threshold", r.Ticker)
			}
		}
	}
	if trades != 3 {
		t.Fatalf("expected 3 trades, got %d", trades)
	}
	if got := tickers(out); !equal(got, []string{"A", "C", "D", "E"}) {
		t.Errorf("expected [A C D E], got %v", got)
	}
}

func TestApply_StableTieBreak(t *testing.T) {
	rows := []model.ScoredRow{
		row("X", model.SignalBuy, 0.7),
		row("Y", model.SignalSell, 0.7),
		row("Z", model.SignalBuy, 0.7),
	}
	out := Apply(rows, Config{ConfidenceThreshold: 0.6, MaxPositionsPerDay: 2})
	if got := tickers(out); !equal(got, []string{"X", "Y"}) {
		t.Fatalf("expected input order on ties, got %v", got)
	}
}

func TestApply_NaNConfidenceDropped(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalBuy, math.NaN()),
		row("B", model.SignalBuy, 0.9),
	}
	out := Apply(rows, Config{ConfidenceThreshold: 0, MaxPositionsPerDay: 5})
	if got := tickers(out); !equal(got, []string{"B"}) {
		t.Fatalf("expected [B], got %v", got)
	}
}

func TestApply_PassThroughWithoutTrades(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalNone, 0),
		row("B", model.SignalNone, 0),
	}
	out := Apply(rows, DefaultConfig())
	if got := tickers(out); !equal(got, []string{"A", "B"}) {
		t.Fatalf("expected rows unchanged, got %v", got)
	}
	out[0].Ticker = "changed"
	if rows[0].Ticker != "A" {
		t.Fatal("result must not alias the input")
	}
}

func TestApply_CapProperty(t *testing.T) {
	var rows []model.ScoredRow
	for i := 0; i < 20; i++ {
		sig := model.Signal(i%3 - 1)
		rows = append(rows, row(string(rune('a'+i)), sig, float64(i%7)/6))
	}
	for limit := 0; limit <= 8; limit++ {
		out := Apply(rows, Config{ConfidenceThreshold: 0.2, MaxPositionsPerDay: limit})
		trades, rest := 0, 0
		for _, r := range out {
			if r.IsTrade() {
				trades++
			} else {
				rest++
			}
		}
		if trades > limit {
			t.Fatalf("limit %d: kept %d trades", limit, trades)
		}
		if rest != 7 {
			t.Fatalf("limit %d: expected 7 no-trade rows, got %d", limit, rest)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	rows := []model.ScoredRow{
		row("A", model.SignalBuy, 0.4),
		row("B", model.SignalBuy, 0.9),
		row("C", model.SignalNone, 0),
	}
	before := tickers(rows)
	Apply(rows, Config{ConfidenceThreshold: 0.3, MaxPositionsPerDay: 1})
	if got := tickers(rows); !equal(got, before) {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestApplyByOrder(t *testing.T) {
	rows := []model.SignalRow{
		{Signal: model.SignalNone, Close: 1},
		{Signal: model.SignalBuy, Close: 2},
		{Signal: model.SignalSell, Close: 3},
		{Signal: model.SignalBuy, Close: 4},
	}
	out, st := ExplainByOrder(rows, Config{MaxPositionsPerDay: 2})
	want := []float64{2, 3, 1}
	if len(out) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(out))
	}
	for i, r := range out {
		if r.Close != want[i] {
			t.Errorf("row %d: expected close %v, got %v", i, want[i], r.Close)
		}
	}
	if st.DroppedByCap != 1 || st.Kept != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ConfidenceThreshold != 0.6 || cfg.MaxPositionsPerDay != 3 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
