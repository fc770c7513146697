package utils

import (
	"regexp"
	"time"

	"github.com/opsdesk/shift-backend/internal/domain"
)

var timeOfDayRegexp = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):([0-5][0-9])$`)

// ValidateTimeFormat reports whether s is a 24-hour HH:mm time of day.
func ValidateTimeFormat(s string) bool {
	return timeOfDayRegexp.MatchString(s)
}

// ValidateShiftTimes checks both ends of a shift window and names every
// field that fails.
func ValidateShiftTimes(shiftStart, shiftEnd string) error {
	var bad []string
	if !ValidateTimeFormat(shiftStart) {
		bad = append(bad, "shiftStart")
	}
	if !ValidateTimeFormat(shiftEnd) {
		bad = append(bad, "shiftEnd")
	}
	if len(bad) > 0 {
		return &domain.TimeFormatError{Fields: bad}
	}
	return nil
}

// ValidateDateRange fails when end is present and before start.
func ValidateDateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return domain.ErrInvalidRange
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD value into UTC midnight.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, &domain.DateError{Field: field, Value: value}
	}
	return t, nil
}
