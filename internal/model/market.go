package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSeries is returned when a price series cannot be fed to the indicators.
var ErrInvalidSeries = errors.New("invalid price series")

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the bar history of one instrument, oldest first.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (p PriceSeries) Len() int { return len(p.Bars) }

// Closes returns a fresh slice of close prices in bar order.
func (p PriceSeries) Closes() []float64 {
	closes := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate checks bar ordering and close values.
func (p PriceSeries) Validate() error {
	for i, b := range p.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return fmt.Errorf("%w: %s bar %d has close %v", ErrInvalidSeries, p.Symbol, i, b.Close)
		}
		if i > 0 && !b.Time.After(p.Bars[i-1].Time) {
			return fmt.Errorf("%w: %s bar %d is not after bar %d", ErrInvalidSeries, p.Symbol, i, i-1)
		}
	}
	return nil
}
