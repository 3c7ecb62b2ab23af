package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SignalSentinel/internal/model"
)

// ErrNoData is returned when a source has no bars for a symbol.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// Options selects and parameterizes a Fetcher.
type Options struct {
	Provider string // yahoo, rest or mock
	BaseURL  string
	APIKey   string
	Interval string
	Proxy    string
}

// NewFetcher builds the Fetcher named by opts.Provider.
func NewFetcher(opts Options) (Fetcher, error) {
	switch opts.Provider {
	case "", "yahoo":
		f := NewYahooFetcher(opts.Proxy)
		if opts.BaseURL != "" {
			f.BaseURL = opts.BaseURL
		}
		if opts.Interval != "" {
			f.Interval = opts.Interval
		}
		return f, nil
	case "rest":
		return NewRESTFetcher(opts.BaseURL, opts.APIKey, opts.Proxy), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", opts.Provider)
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
