package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/guardrail"
	"SignalSentinel/internal/model"
)

func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	start := time.Now()
	run := &model.RunLog{Status: model.RunPartial, StartTime: start, EndTime: start.Add(3 * time.Second), TickersError: 2}
	kept := []model.ScoredRow{
		{SignalRow: model.SignalRow{Signal: model.SignalBuy}},
		{SignalRow: model.SignalRow{Signal: model.SignalBuy}},
		{SignalRow: model.SignalRow{Signal: model.SignalSell}},
		{SignalRow: model.SignalRow{Signal: model.SignalNone}},
	}
	m.ObserveRun(run, kept, guardrail.Stats{DroppedByThreshold: 4, DroppedByCap: 1})

	if v := counterValue(t, reg, "sentinel_signals_total", map[string]string{"side": "BUY"}); v != 2 {
		t.Errorf("expected 2 buys, got %v", v)
	}
	if v := counterValue(t, reg, "sentinel_guardrail_dropped_total", map[string]string{"reason": "threshold"}); v != 4 {
		t.Errorf("expected 4 threshold drops, got %v", v)
	}
	if v := counterValue(t, reg, "sentinel_scan_runs_total", map[string]string{"status": "partial"}); v != 1 {
		t.Errorf("expected one partial run, got %v", v)
	}
	if v := counterValue(t, reg, "sentinel_ticker_errors_total", nil); v != 2 {
		t.Errorf("expected 2 ticker errors, got %v", v)
	}
}

func TestObserveRun_NilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRun(&model.RunLog{}, nil, guardrail.Stats{})
}

func TestServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.TickerErrors.Inc()

	srv := httptest.NewServer(NewServer(":0", reg, zerolog.Nop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "sentinel_ticker_errors_total 1") {
		t.Errorf("expected ticker error counter in exposition, got:\n%s", body)
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /healthz, got %d", health.StatusCode)
	}
}
