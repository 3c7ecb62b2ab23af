package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/publisher"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scanner"
	"SignalSentinel/internal/scheduler"
)

func main() {
	os.Exit(run())
}

// run loads the configuration and serves until a shutdown signal. It returns
// the process exit code.
func run() int {
	log := logger.New("info")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return 1
	}
	log = logger.New(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation")
		return 1
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log, os.Getenv("RUN_ONCE") == "true")
}

// serve wires the pipeline from cfg. With once set it runs a single scan and
// returns; otherwise it schedules scans until ctx is done.
func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, once bool) int {
	log.Info().Int("tickers", len(cfg.Tickers)).Str("mode", cfg.RSI.Mode.String()).
		Str("trend", cfg.Trend.Type.String()).Msg("SignalSentinel starting")

	// Init fetcher
	fetcher, err := collector.NewFetcher(collector.Options{
		Provider: cfg.DataSource.Provider,
		BaseURL:  cfg.DataSource.BaseURL,
		APIKey:   cfg.DataSource.APIKey,
		Interval: cfg.DataSource.Interval,
		Proxy:    cfg.Proxy,
	})
	if err != nil {
		log.Error().Err(err).Msg("init fetcher")
		return 1
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	rec, history := buildRecorder(cfg, log)
	defer rec.Close()

	pub := buildPublisher(cfg, log)
	defer pub.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		ms := metrics.NewServer(cfg.Metrics.Addr, reg, log)
		ms.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Stop(ctx); err != nil {
				log.Warn().Err(err).Msg("stop metrics server")
			}
		}()
	}

	sc := scanner.New(scanner.Options{
		Tickers:     cfg.Tickers,
		Collector:   collector.NewCollector(fetcher, cfg.DataSource.Days),
		Strategy:    cfg.StrategyConfig(),
		Guardrail:   cfg.GuardrailConfig(),
		Concurrency: cfg.Scan.Concurrency,
		Recorder:    rec,
		Publisher:   pub,
		Metrics:     m,
	}, log)

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	} else {
		log.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, sc, sender, log)
	sched.History = history

	if once {
		if _, err := sched.RunNow(); err != nil {
			log.Error().Err(err).Msg("scan finished with errors")
			return 1
		}
		return 0
	}

	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Error().Err(err).Msg("register cron tasks")
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing scan now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("SignalSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	return 0
}

// buildRecorder combines SQLite and CSV export. A store that fails to open is
// logged and left out.
func buildRecorder(cfg *config.Config, log zerolog.Logger) (recorder.Recorder, scheduler.History) {
	var (
		recs    recorder.Multi
		history scheduler.History
	)
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create database dir")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, skipping")
		} else {
			recs = append(recs, sr)
			history = sr
		}
	}
	if cfg.Export.Dir != "" {
		cr, err := recorder.NewCSVRecorder(cfg.Export.Dir)
		if err != nil {
			log.Warn().Err(err).Msg("init csv recorder failed, skipping")
		} else {
			recs = append(recs, cr)
		}
	}
	if len(recs) == 0 {
		return recorder.NewNoopRecorder(), history
	}
	return recs, history
}

func buildPublisher(cfg *config.Config, log zerolog.Logger) publisher.Publisher {
	if cfg.Redis.Addr == "" {
		return publisher.Noop{}
	}
	p, err := publisher.NewRedisPublisher(publisher.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Stream:   cfg.Redis.Stream,
		MaxLen:   cfg.Redis.MaxLen,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("init redis publisher failed, publishing disabled")
		return publisher.Noop{}
	}
	return p
}
