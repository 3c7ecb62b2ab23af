// Package metrics exposes scan counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/guardrail"
	"SignalSentinel/internal/model"
)

// Metrics holds the scan metrics.
type Metrics struct {
	SignalsTotal     *prometheus.CounterVec // labels: side
	GuardrailDropped *prometheus.CounterVec // labels: reason
	ScanRuns         *prometheus.CounterVec // labels: status
	ScanDuration     prometheus.Histogram
	TickerErrors     prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Trades kept by the guardrail, by side",
		}, []string{"side"}),
		GuardrailDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_guardrail_dropped_total",
			Help: "Trades dropped by the guardrail, by reason",
		}, []string{"reason"}),
		ScanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_scan_runs_total",
			Help: "Completed scans, by run status",
		}, []string{"status"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_scan_duration_seconds",
			Help:    "Wall time of a full scan",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		TickerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_ticker_errors_total",
			Help: "Tickers that failed to collect or evaluate",
		}),
	}
	reg.MustRegister(m.SignalsTotal, m.GuardrailDropped, m.ScanRuns, m.ScanDuration, m.TickerErrors)
	return m
}

// ObserveRun records the outcome of one scan.
func (m *Metrics) ObserveRun(run *model.RunLog, kept []model.ScoredRow, st guardrail.Stats) {
	if m == nil {
		return
	}
	for _, r := range kept {
		if r.IsTrade() {
			m.SignalsTotal.WithLabelValues(r.Signal.String()).Inc()
		}
	}
	m.GuardrailDropped.WithLabelValues("threshold").Add(float64(st.DroppedByThreshold))
	m.GuardrailDropped.WithLabelValues("cap").Add(float64(st.DroppedByCap))
	m.ScanRuns.WithLabelValues(run.Status).Inc()
	m.ScanDuration.Observe(run.EndTime.Sub(run.StartTime).Seconds())
	m.TickerErrors.Add(float64(run.TickersError))
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer creates a metrics server for the given gatherer.
func NewServer(addr string, g prometheus.Gatherer, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With().Str("component", "metrics").Logger(),
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
