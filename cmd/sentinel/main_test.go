package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/publisher"
	"SignalSentinel/internal/recorder"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Tickers = []string{"ES=F", "GC=F"}
	cfg.DataSource.Provider = "mock"
	cfg.Database.SQLitePath = filepath.Join(dir, "db", "sentinel.db")
	cfg.Export.Dir = filepath.Join(dir, "export")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestServe_RunOnce(t *testing.T) {
	cfg := testConfig(t)

	if code := serve(context.Background(), cfg, zerolog.Nop(), true); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	if _, err := os.Stat(filepath.Join(cfg.Export.Dir, "runlog.csv")); err != nil {
		t.Errorf("expected run log export: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(cfg.Export.Dir, "recommendations"))
	if err != nil || len(entries) != 1 {
		t.Errorf("expected one recommendations file, got %d (%v)", len(entries), err)
	}

	r, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer r.Close()
	run, err := r.LastRun()
	if err != nil || run == nil {
		t.Fatalf("expected a stored run, got %v, %v", run, err)
	}
	if run.Status != model.RunSuccess || run.TickersProcessed != 2 {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestServe_RunOnceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := serve(ctx, testConfig(t), zerolog.Nop(), true); code != 1 {
		t.Errorf("expected exit code 1 for an aborted scan, got %d", code)
	}
}

func TestServe_BadCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.DailyCron = "whenever"

	if code := serve(context.Background(), cfg, zerolog.Nop(), false); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int)
	go func() { done <- serve(ctx, testConfig(t), zerolog.Nop(), false) }()

	cancel()
	if code := <-done; code != 0 {
		t.Errorf("expected clean shutdown, got %d", code)
	}
}

func TestBuildRecorder(t *testing.T) {
	cfg := testConfig(t)
	rec, history := buildRecorder(cfg, zerolog.Nop())
	defer rec.Close()
	if _, ok := rec.(recorder.Multi); !ok {
		t.Errorf("expected sqlite and csv fan-out, got %T", rec)
	}
	if history == nil {
		t.Error("expected sqlite history")
	}

	cfg.Database.SQLitePath, cfg.Export.Dir = "", ""
	rec, history = buildRecorder(cfg, zerolog.Nop())
	if _, ok := rec.(*recorder.NoopRecorder); !ok || history != nil {
		t.Errorf("expected noop recorder without history, got %T, %v", rec, history)
	}
}

func TestBuildPublisher(t *testing.T) {
	cfg := testConfig(t)
	if _, ok := buildPublisher(cfg, zerolog.Nop()).(publisher.Noop); !ok {
		t.Error("expected noop publisher without a redis address")
	}

	cfg.Redis.Addr = "127.0.0.1:1"
	if _, ok := buildPublisher(cfg, zerolog.Nop()).(publisher.Noop); !ok {
		t.Error("expected fallback to noop when redis is unreachable")
	}
}
