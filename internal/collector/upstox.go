package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/model"
)

// DefaultUpstoxBaseURL is the public Upstox REST endpoint.
const DefaultUpstoxBaseURL = "https://api.upstox.com"

// UpstoxFetcher implements Fetcher using the Upstox v2 historical candle API.
type UpstoxFetcher struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
	Limiter     *rate.Limiter
}

// NewUpstoxFetcher creates a new fetcher with optional proxy support. A nil
// limiter disables request pacing.
func NewUpstoxFetcher(baseURL, accessToken, proxyURL string, limiter *rate.Limiter) *UpstoxFetcher {
	if baseURL == "" {
		baseURL = DefaultUpstoxBaseURL
	}
	return &UpstoxFetcher{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		Client:      newHTTPClient(proxyURL),
		Limiter:     limiter,
	}
}

func (f *UpstoxFetcher) Name() string { return "upstox" }

// upstoxCandles is the response of /v2/historical-candle. Each candle is
// [timestamp, open, high, low, close, volume, open_interest].
type upstoxCandles struct {
	Status string `json:"status"`
	Data   *struct {
		Candles [][]json.RawMessage `json:"candles"`
	} `json:"data"`
	Errors []struct {
		ErrorCode string `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"errors"`
}

func (f *UpstoxFetcher) FetchDailyBars(ctx context.Context, inst model.Instrument, from, to time.Time) ([]model.OHLCV, error) {
	if inst.InstrumentKey == "" {
		return nil, fmt.Errorf("upstox: %s has no instrument key: %w", inst.Symbol, model.ErrMissingField)
	}
	endpoint := fmt.Sprintf("%s/v2/historical-candle/%s/day/%s/%s",
		f.BaseURL, url.PathEscape(inst.InstrumentKey), to.Format("2006-01-02"), from.Format("2006-01-02"))

	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: upstox rate limit: %w", model.ErrUpstreamFetch, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.AccessToken)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: upstox fetch: %w", model.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: upstox read body: %w", model.ErrUpstreamFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstox: status %d, body: %s", model.ErrUpstreamFetch, resp.StatusCode, string(body))
	}

	var res upstoxCandles
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: upstox decode: %w", model.ErrUpstreamFetch, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: upstox api error %s: %s", model.ErrUpstreamFetch, res.Errors[0].ErrorCode, res.Errors[0].Message)
	}
	if res.Data == nil || len(res.Data.Candles) == 0 {
		return nil, fmt.Errorf("upstox %s: %w", inst.InstrumentKey, model.ErrNoData)
	}

	bars := make([]model.OHLCV, 0, len(res.Data.Candles))
	for i, c := range res.Data.Candles {
		bar, err := decodeCandle(c)
		if err != nil {
			return nil, fmt.Errorf("%w: upstox candle %d: %w", model.ErrUpstreamFetch, i, err)
		}
		bars = append(bars, bar)
	}
	// Upstox returns newest first.
	sortBars(bars)
	return bars, nil
}

func decodeCandle(c []json.RawMessage) (model.OHLCV, error) {
	if len(c) < 6 {
		return model.OHLCV{}, fmt.Errorf("want at least 6 fields, got %d", len(c))
	}
	var ts string
	if err := json.Unmarshal(c[0], &ts); err != nil {
		return model.OHLCV{}, fmt.Errorf("timestamp: %w", err)
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return model.OHLCV{}, fmt.Errorf("timestamp: %w", err)
	}
	vals := make([]float64, 6)
	for i := 1; i < len(c) && i <= 6; i++ {
		if err := json.Unmarshal(c[i], &vals[i-1]); err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", i, err)
		}
	}
	return model.OHLCV{
		Time:         t.In(markethours.IST),
		Open:         vals[0],
		High:         vals[1],
		Low:          vals[2],
		Close:        vals[3],
		Volume:       vals[4],
		OpenInterest: vals[5],
	}, nil
}
