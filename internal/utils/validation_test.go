package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTimeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"19:59", true},
		{"23:59", true},
		{"25:00", false},
		{"24:00", false},
		{"9:00", false},
		{"09:60", false},
		{"09:5", false},
		{"0900", false},
		{" 09:00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTimeFormat(tt.in))
		})
	}
}

func TestValidateShiftTimes(t *testing.T) {
	assert.NoError(t, ValidateShiftTimes("08:00", "14:00"))

	err := ValidateShiftTimes("8:00", "14:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeFormat)

	var tfe *domain.TimeFormatError
	require.True(t, errors.As(err, &tfe))
	assert.Equal(t, []string{"shiftStart"}, tfe.Fields)

	err = ValidateShiftTimes("bad", "24:00")
	require.True(t, errors.As(err, &tfe))
	assert.Equal(t, []string{"shiftStart", "shiftEnd"}, tfe.Fields)
	assert.Equal(t, "invalid time format for shiftStart or shiftEnd", err.Error())
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	after := start.AddDate(0, 0, 1)

	assert.NoError(t, ValidateDateRange(start, nil))
	assert.NoError(t, ValidateDateRange(start, &start))
	assert.NoError(t, ValidateDateRange(start, &after))
	assert.ErrorIs(t, ValidateDateRange(start, &before), domain.ErrInvalidRange)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("startDate", "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("startDate", "2025-02-30")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = ParseDate("endDate", "09/03/2025")
	var de *domain.DateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "endDate", de.Field)
}
