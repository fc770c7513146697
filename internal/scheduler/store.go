package scheduler

import (
	"context"

	"github.com/opsdesk/shift-backend/internal/domain"
)

// ShiftStore is the persistence the scheduler needs. Implementations must
// enforce uniqueness of (EmployeeID, StartDate) themselves and report a
// violation as domain.ErrDuplicateRecord; the scheduler's own lookup is only
// an early exit.
type ShiftStore interface {
	// FindShift returns the first shift matching filter, or
	// domain.ErrRecordNotFound.
	FindShift(ctx context.Context, filter domain.ShiftFilter) (*domain.Shift, error)

	// InsertShift assigns ID, CreatedAt and Version.
	InsertShift(ctx context.Context, shift *domain.Shift) error

	// UpdateShift persists every mutable field of an already loaded shift.
	// A stale Version yields domain.ErrVersionConflict.
	UpdateShift(ctx context.Context, shift *domain.Shift) error

	// DeleteShift removes at most one shift matching filter.
	DeleteShift(ctx context.Context, filter domain.ShiftFilter) (bool, error)

	GetShiftByID(ctx context.Context, id string) (*domain.Shift, error)
	DeleteShiftByID(ctx context.Context, id string) (*domain.Shift, error)

	GetAllShiftDetails(ctx context.Context) ([]*domain.ShiftDetail, error)
	GetShiftDetailByID(ctx context.Context, id string) (*domain.ShiftDetail, error)

	// WithTx runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx ShiftStore) error) error
}
