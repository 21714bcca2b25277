package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// Market hours in IST
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30
)

// IsMarketOpen returns true if t falls within NSE trading hours
// (9:15 AM to 3:30 PM IST on trading days).
func IsMarketOpen(t time.Time) bool {
	ist := t.In(IST)
	if !IsTradingDay(ist) {
		return false
	}
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon-Fri in IST.
func IsWeekday(t time.Time) bool {
	wd := t.In(IST).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	return IsWeekday(ist) && !IsHoliday(ist)
}

// Date truncates t to midnight of its IST calendar day.
func Date(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// SessionClose returns 15:30 IST on the calendar day of t.
func SessionClose(t time.Time) time.Time {
	return Date(t).Add(CloseHour*time.Hour + CloseMinute*time.Minute)
}

// SameDate reports whether a and b fall on the same IST calendar day.
func SameDate(a, b time.Time) bool {
	return Date(a).Equal(Date(b))
}

// PreviousTradingDay returns midnight IST of the last trading day strictly
// before t.
func PreviousTradingDay(t time.Time) time.Time {
	d := Date(t).AddDate(0, 0, -1)
	for i := 0; i < 15 && !IsTradingDay(d); i++ {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	ist := t.In(IST)
	switch {
	case IsMarketOpen(ist):
		return "Market Open"
	case IsHoliday(ist):
		return fmt.Sprintf("Market Closed (NSE holiday %s)", ist.Format("02-Jan-2006"))
	case !IsWeekday(ist):
		return "Market Closed (weekend)"
	default:
		return "Market Closed"
	}
}
