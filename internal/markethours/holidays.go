package markethours

import "time"

type holiday struct {
	month time.Month
	day   int
}

// NSE equity segment trading holidays that fall on weekdays.
// Source: NSE India holiday circulars; 2026 dates marked tentative are
// subject to the exchange's final list.
var nseHolidays = map[int][]holiday{
	2024: {
		{time.January, 22},  // Special holiday
		{time.January, 26},  // Republic Day
		{time.March, 8},     // Mahashivratri
		{time.March, 25},    // Holi
		{time.March, 29},    // Good Friday
		{time.April, 11},    // Id-ul-Fitr
		{time.April, 17},    // Ram Navami
		{time.May, 1},       // Maharashtra Day
		{time.May, 20},      // General elections
		{time.June, 17},     // Bakri Id
		{time.July, 17},     // Moharram
		{time.August, 15},   // Independence Day
		{time.October, 2},   // Mahatma Gandhi Jayanti
		{time.November, 1},  // Diwali Laxmi Pujan
		{time.November, 15}, // Guru Nanak Jayanti
		{time.November, 20}, // Maharashtra elections
		{time.December, 25}, // Christmas
	},
	2025: {
		{time.February, 26}, // Mahashivratri
		{time.March, 14},    // Holi
		{time.March, 31},    // Id-ul-Fitr
		{time.April, 10},    // Mahavir Jayanti
		{time.April, 14},    // Dr. Ambedkar Jayanti
		{time.April, 18},    // Good Friday
		{time.May, 1},       // Maharashtra Day
		{time.August, 15},   // Independence Day
		{time.August, 27},   // Ganesh Chaturthi
		{time.October, 2},   // Mahatma Gandhi Jayanti / Dussehra
		{time.October, 21},  // Diwali Laxmi Pujan
		{time.October, 22},  // Diwali Balipratipada
		{time.November, 5},  // Guru Nanak Jayanti
		{time.December, 25}, // Christmas
	},
	2026: {
		{time.January, 26},   // Republic Day
		{time.February, 17},  // Mahashivratri (tentative)
		{time.March, 3},      // Holi (tentative)
		{time.March, 31},     // Mahavir Jayanti (tentative)
		{time.April, 3},      // Good Friday
		{time.April, 14},     // Dr. Ambedkar Jayanti
		{time.May, 1},        // Maharashtra Day
		{time.May, 28},       // Bakri Id (tentative)
		{time.June, 26},      // Muharram (tentative)
		{time.September, 14}, // Ganesh Chaturthi (tentative)
		{time.October, 2},    // Mahatma Gandhi Jayanti
		{time.October, 20},   // Dussehra (tentative)
		{time.November, 10},  // Diwali Balipratipada (tentative)
		{time.November, 24},  // Guru Nanak Jayanti (tentative)
		{time.December, 25},  // Christmas
	},
}

var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool)
	for year, days := range nseHolidays {
		for _, h := range days {
			holidaySet[dateKey(year, h.month, h.day)] = true
		}
	}
}

// IsHoliday returns true if the date (in IST) is an NSE holiday.
func IsHoliday(t time.Time) bool {
	ist := t.In(IST)
	return holidaySet[dateKey(ist.Year(), ist.Month(), ist.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, IST).Format("2006-01-02")
}
