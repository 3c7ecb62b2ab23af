// Package publisher pushes accepted trades to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

// Publisher delivers the kept trades of a run.
type Publisher interface {
	Publish(ctx context.Context, runID string, rows []model.ScoredRow) error
	Close() error
}

// Noop discards everything. Used when no Redis address is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, []model.ScoredRow) error { return nil }
func (Noop) Close() error                                             { return nil }

// RedisConfig configures the Redis publisher.
type RedisConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

const (
	latestTTL     = 36 * time.Hour
	signalChannel = "pub:signals"
)

// RedisPublisher appends one JSON entry per trade to a capped stream, keeps the
// latest signal of each ticker under signal:latest:<ticker> and announces the
// run on pub:signals.
type RedisPublisher struct {
	client *goredis.Client
	cfg    RedisConfig
	log    zerolog.Logger
}

// NewRedisPublisher connects and pings the server.
func NewRedisPublisher(cfg RedisConfig, log zerolog.Logger) (*RedisPublisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log = log.With().Str("component", "redis").Logger()
	log.Info().Str("addr", cfg.Addr).Str("stream", cfg.Stream).Msg("redis publisher connected")
	return &RedisPublisher{client: client, cfg: cfg, log: log}, nil
}

// Message is the JSON payload of one published trade.
type Message struct {
	RunID      string   `json:"run_id"`
	Ticker     string   `json:"ticker"`
	Time       int64    `json:"time"`
	Close      float64  `json:"close"`
	RSI        *float64 `json:"rsi,omitempty"`
	Trend      string   `json:"trend"`
	Signal     string   `json:"signal"`
	Confidence float64  `json:"confidence"`
}

func newMessage(runID string, r model.ScoredRow) Message {
	m := Message{
		RunID:      runID,
		Ticker:     r.Ticker,
		Time:       r.Time.Unix(),
		Close:      r.Close,
		Trend:      r.TrendSide.String(),
		Signal:     r.Signal.String(),
		Confidence: r.Confidence,
	}
	if !math.IsNaN(r.RSI) {
		rsi := r.RSI
		m.RSI = &rsi
	}
	return m
}

// Publish writes every trade row in a single pipeline. No-trade rows are skipped.
func (p *RedisPublisher) Publish(ctx context.Context, runID string, rows []model.ScoredRow) error {
	pipe := p.client.Pipeline()
	n := 0
	for _, r := range rows {
		if !r.IsTrade() {
			continue
		}
		data, err := json.Marshal(newMessage(runID, r))
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.Ticker, err)
		}
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: p.cfg.Stream,
			MaxLen: p.cfg.MaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": string(data)},
		})
		pipe.Set(ctx, "signal:latest:"+r.Ticker, data, latestTTL)
		n++
	}
	if n == 0 {
		return nil
	}
	pipe.Publish(ctx, signalChannel, runID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline (%d signals): %w", n, err)
	}
	p.log.Debug().Str("run_id", runID).Int("signals", n).Msg("published")
	return nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }
