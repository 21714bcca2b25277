package collector

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"NiftyScreener/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns the daily bars of inst dated within [from, to],
	// oldest first.
	FetchDailyBars(ctx context.Context, inst model.Instrument, from, to time.Time) ([]model.OHLCV, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
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

func sortBars(bars []model.OHLCV) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}
