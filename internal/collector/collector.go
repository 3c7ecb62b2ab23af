package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Closes overrides the generated bars per symbol.
	Closes map[string][]float64
	// Errs makes FetchDailyBars fail for the listed symbols.
	Errs map[string]error
	// End is the time of the last generated bar; zero means today (UTC midnight).
	End time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	closes, ok := m.Closes[symbol]
	if !ok {
		closes = make([]float64, days)
		for i := range closes {
			// gentle oscillation around Price
			closes[i] = m.Price * (1 + 0.02*math.Sin(float64(i)/5) + float64(i-days/2)*0.001)
		}
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}

	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, i-len(closes)+1),
			Open:   c * 0.999,
			High:   c * 1.005,
			Low:    c * 0.995,
			Close:  c,
			Volume: 1000000,
		}
	}
	return bars, nil
}

// Collector fetches and validates the price history of one symbol at a time.
// It holds no per-symbol state and is safe for concurrent use.
type Collector struct {
	Fetcher Fetcher
	Days    int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, days int) *Collector {
	return &Collector{Fetcher: fetcher, Days: days}
}

// Collect fetches the daily bars of symbol and checks that the indicators can use them.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch daily bars %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("fetch daily bars %s: %w", symbol, ErrNoData)
	}
	series := model.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		FetchedAt: time.Now().UTC(),
	}
	if err := series.Validate(); err != nil {
		return model.PriceSeries{}, err
	}
	return series, nil
}
