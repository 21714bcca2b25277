package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat_Comparisons(t *testing.T) {
	assert.True(t, Some(29.9).Lt(30))
	assert.False(t, None.Lt(30))
	assert.False(t, None.Gt(30))
	assert.False(t, Some(math.NaN()).Valid)
	assert.False(t, Some(math.Inf(1)).Gt(0))
	assert.False(t, None.Equal(None))
	assert.True(t, Some(1.5).Equal(Some(1.5)))
	assert.Nil(t, None.Ptr())
}

func TestFloat_Format2RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.005, 99.516, -26, 123456.789, 0.004999} {
		s := Some(v).Format2()
		parsed, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err, s)
		assert.InDelta(t, v, parsed, 0.01, s)
	}
	assert.Equal(t, "", None.Format2())
}

func TestFloat_SQLAndJSON(t *testing.T) {
	v, err := None.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Some(2.5).Value()
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	b, _ := None.MarshalJSON()
	assert.Equal(t, "null", string(b))
}

func TestPriceSeries_Validate(t *testing.T) {
	day := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	good := OHLCV{Time: day, Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10}

	tests := []struct {
		name  string
		bars  []OHLCV
		field string
	}{
		{"zero time", []OHLCV{{Open: 1, High: 1, Low: 1, Close: 1}}, "timestamp"},
		{"zero close", []OHLCV{{Time: day, Open: 1, High: 1, Low: 1}}, "close"},
		{"nan high", []OHLCV{{Time: day, Open: 1, High: math.NaN(), Low: 1, Close: 1}}, "high"},
		{"negative volume", []OHLCV{{Time: day, Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}}, "volume"},
		{"duplicate time", []OHLCV{good, good}, "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &PriceSeries{Bars: tt.bars}
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingField)
			var be *BarError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.field, be.Field)
		})
	}

	next := good
	next.Time = day.AddDate(0, 0, 1)
	assert.NoError(t, (&PriceSeries{Bars: []OHLCV{good, next}}).Validate())
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "", FailureKind(nil))
	assert.Equal(t, "insufficient_data", FailureKind(fmt.Errorf("x: %w", ErrNoData)))
	assert.Equal(t, "missing_field", FailureKind(&BarError{Field: "close"}))
	assert.Equal(t, "upstream", FailureKind(fmt.Errorf("get: %w", ErrUpstreamFetch)))
	assert.Equal(t, "other", FailureKind(errors.New("boom")))
	assert.ErrorIs(t, ErrNoData, ErrInsufficientData)
}

func TestSortTradeEvents(t *testing.T) {
	d1 := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tcs := Instrument{Symbol: "TCS"}
	infy := Instrument{Symbol: "INFY"}
	events := []TradeEvent{
		{Instrument: tcs, Time: d2, Action: ActionBuy},
		{Instrument: infy, Time: d2, Action: ActionSell},
		{Instrument: infy, Time: d2, Action: ActionProfitLoss},
		{Instrument: infy, Time: d1, Action: ActionBuy},
		{Instrument: tcs, Time: d1, Action: ActionBuy},
	}
	SortTradeEvents(events)

	got := make([]string, len(events))
	for i, e := range events {
		got[i] = e.Instrument.Symbol + " " + e.Time.Format("2006-01-02") + " " + string(e.Action)
	}
	assert.Equal(t, []string{
		"INFY 2024-12-02 Buy",
		"INFY 2025-01-01 Sell",
		"INFY 2025-01-01 Profit/Loss",
		"TCS 2024-12-02 Buy",
		"TCS 2025-01-01 Buy",
	}, got)
}

func TestBreakoutReport_BOHFlag(t *testing.T) {
	r := &BreakoutReport{}
	assert.Equal(t, "", r.BOHFlag())
	r.BOHEligible = true
	assert.Equal(t, "YES", r.BOHFlag())
}
