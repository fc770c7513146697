package utils

import (
	"time"

	"github.com/opsdesk/shift-backend/internal/domain"
)

// DaysInRange returns every calendar day from start to end inclusive, at
// UTC midnight. The caller must have checked start <= end.
func DaysInRange(start, end time.Time) []time.Time {
	start = TruncateDay(start)
	end = TruncateDay(end)

	n := int(end.Sub(start).Hours()/24) + 1
	if n < 0 {
		n = 0
	}

	days := make([]time.Time, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DatesInRange is DaysInRange formatted as YYYY-MM-DD strings.
func DatesInRange(start, end time.Time) []string {
	days := DaysInRange(start, end)
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(domain.DateLayout)
	}
	return dates
}

// TruncateDay drops the time-of-day part and moves t to UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
