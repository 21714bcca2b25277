package collector

import (
	"context"
	"fmt"
	"time"

	"NiftyScreener/internal/model"
)

// Collector fetches bars and turns them into validated price series.
type Collector struct {
	Fetcher Fetcher
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, now: time.Now}
}

// Collect fetches the daily bars of inst dated within [from, to].
func (c *Collector) Collect(ctx context.Context, inst model.Instrument, from, to time.Time) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, inst, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", inst.Symbol, c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch %s from %s: %w", inst.Symbol, c.Fetcher.Name(), model.ErrNoData)
	}
	sortBars(bars)

	series := &model.PriceSeries{Instrument: inst, Bars: bars, FetchedAt: c.now()}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("series %s: %w", inst.Symbol, err)
	}
	return series, nil
}
