package markethours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTradingDay(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday", time.Date(2025, 1, 6, 10, 0, 0, 0, IST), true},
		{"saturday", time.Date(2025, 1, 4, 10, 0, 0, 0, IST), false},
		{"independence day", time.Date(2025, 8, 15, 10, 0, 0, 0, IST), false},
		{"christmas 2026", time.Date(2026, 12, 25, 10, 0, 0, 0, IST), false},
		// 2025-08-14 20:00 UTC is already the 15th in IST.
		{"holiday by IST date", time.Date(2025, 8, 14, 20, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTradingDay(tt.t))
		})
	}
}

func TestIsMarketOpen(t *testing.T) {
	assert.False(t, IsMarketOpen(time.Date(2025, 1, 6, 9, 14, 0, 0, IST)))
	assert.True(t, IsMarketOpen(time.Date(2025, 1, 6, 9, 15, 0, 0, IST)))
	assert.False(t, IsMarketOpen(time.Date(2025, 1, 6, 15, 30, 0, 0, IST)))
}

func TestSameDate(t *testing.T) {
	a := time.Date(2025, 3, 10, 0, 0, 0, 0, IST)
	b := time.Date(2025, 3, 9, 19, 0, 0, 0, time.UTC) // 00:30 IST on the 10th
	assert.True(t, SameDate(a, b))
	assert.False(t, SameDate(a, a.Add(-time.Minute)))
}

func TestPreviousTradingDay(t *testing.T) {
	// Monday 2025-04-14 is a holiday; the Friday before, 11th, trades.
	got := PreviousTradingDay(time.Date(2025, 4, 15, 12, 0, 0, 0, IST))
	assert.Equal(t, time.Date(2025, 4, 11, 0, 0, 0, 0, IST), got)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Market Closed (weekend)", StatusString(time.Date(2025, 1, 4, 10, 0, 0, 0, IST)))
	assert.Contains(t, StatusString(time.Date(2025, 8, 15, 10, 0, 0, 0, IST)), "holiday")
}

func TestSessionClose(t *testing.T) {
	// 23:00 UTC on the 5th is already the 6th in IST.
	got := SessionClose(time.Date(2025, 1, 5, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 6, 15, 30, 0, 0, IST), got)
}
