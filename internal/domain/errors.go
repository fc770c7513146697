package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidRange      = errors.New("endDate cannot be before startDate")
	ErrInvalidDate       = errors.New("invalid date")
	ErrShiftConflict     = errors.New("shift conflict")
	ErrShiftNotFound     = errors.New("shift not found")
	ErrInvalidShiftType  = errors.New("shiftType must be Morning or Afternoon")

	// Store-level errors. Every store implementation maps its driver errors
	// onto these.
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// TimeFormatError names every time-of-day field that is not HH:mm.
type TimeFormatError struct {
	Fields []string
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("invalid time format for %s", strings.Join(e.Fields, " or "))
}

func (e *TimeFormatError) Is(target error) bool {
	return target == ErrInvalidTimeFormat
}

type DateError struct {
	Field string
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date for %s: %q, expected YYYY-MM-DD", e.Field, e.Value)
}

func (e *DateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// ShiftConflictError reports that an employee already has a shift on a day.
type ShiftConflictError struct {
	EmployeeID string
	Date       string
}

func (e *ShiftConflictError) Error() string {
	return fmt.Sprintf("user with ID %s already has a shift on %s", e.EmployeeID, e.Date)
}

func (e *ShiftConflictError) Is(target error) bool {
	return target == ErrShiftConflict
}

// DuplicateError is a unique-constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateRecord
}
