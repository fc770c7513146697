package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/utils"
)

// Scheduler reconciles shift intents against the stored per-day records.
//
// Without atomic writes a create or update that fails halfway leaves the
// records written before the failure in place. WithAtomicWrites runs every
// operation inside ShiftStore.WithTx instead.
type Scheduler struct {
	store  ShiftStore
	atomic bool
	logger *slog.Logger
}

type Option func(*Scheduler)

func WithAtomicWrites(atomic bool) Option {
	return func(s *Scheduler) {
		s.atomic = atomic
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func New(store ShiftStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is a validated intent: deduplicated employees and the expanded days.
type plan struct {
	intent    domain.ShiftIntent
	employees []string
	days      []time.Time
}

func newPlan(intent domain.ShiftIntent) (*plan, error) {
	if err := utils.ValidateShiftTimes(intent.ShiftStart, intent.ShiftEnd); err != nil {
		return nil, err
	}

	start, err := utils.ParseDate("startDate", intent.StartDate)
	if err != nil {
		return nil, err
	}
	end := start
	if intent.EndDate != "" {
		if end, err = utils.ParseDate("endDate", intent.EndDate); err != nil {
			return nil, err
		}
		if err := utils.ValidateDateRange(start, &end); err != nil {
			return nil, err
		}
	}

	if !intent.ShiftType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidShiftType, intent.ShiftType)
	}

	return &plan{
		intent:    intent,
		employees: uniqueEmployees(intent.EmployeeIDs),
		days:      utils.DaysInRange(start, end),
	}, nil
}

func uniqueEmployees(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (p *plan) newShift(employeeID string, day time.Time) *domain.Shift {
	return &domain.Shift{
		EmployeeID: employeeID,
		StartDate:  day,
		EndDate:    day,
		ShiftType:  p.intent.ShiftType,
		ShiftStart: p.intent.ShiftStart,
		ShiftEnd:   p.intent.ShiftEnd,
		Notes:      p.intent.Notes,
	}
}

func (s *Scheduler) run(ctx context.Context, fn func(ShiftStore) error) error {
	if s.atomic {
		return s.store.WithTx(ctx, fn)
	}
	return fn(s.store)
}

// Create writes one record per employee per day of the intent's range, in
// employee-major, date-minor order, and stops at the first day an employee
// is already booked.
func (s *Scheduler) Create(ctx context.Context, intent domain.ShiftIntent) ([]*domain.Shift, error) {
	p, err := newPlan(intent)
	if err != nil {
		return nil, err
	}

	var created []*domain.Shift
	err = s.run(ctx, func(store ShiftStore) error {
		created = make([]*domain.Shift, 0, len(p.employees)*len(p.days))
		for _, employeeID := range p.employees {
			for _, day := range p.days {
				if err := checkConflict(ctx, store, employeeID, day, ""); err != nil {
					return err
				}

				shift := p.newShift(employeeID, day)
				if err := store.InsertShift(ctx, shift); err != nil {
					return storeError(err, employeeID, day)
				}
				created = append(created, shift)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shifts created", "employees", len(p.employees), "days", len(p.days), "created", len(created))
	return created, nil
}

// Update reconciles the series anchored by the shift with the given id
// against patch. Days of the anchor's range that the new range drops are
// removed, the first reused day keeps the anchor record, and every other
// (employee, day) pair gets a new record.
func (s *Scheduler) Update(ctx context.Context, id string, patch domain.ShiftPatch) ([]*domain.Shift, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var touched []*domain.Shift
	var created, updated, deleted int
	err := s.run(ctx, func(store ShiftStore) error {
		touched = nil
		created, updated, deleted = 0, 0, 0

		anchor, err := store.GetShiftByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.ErrShiftNotFound
			}
			return err
		}

		p, err := newPlan(patch.Merge(anchor))
		if err != nil {
			return err
		}

		oldDays := utils.DaysInRange(anchor.StartDate, anchor.EndDate)
		oldSet := make(map[time.Time]bool, len(oldDays))
		for _, d := range oldDays {
			oldSet[d] = true
		}
		newSet := make(map[time.Time]bool, len(p.days))
		reused := false
		for _, d := range p.days {
			newSet[d] = true
			if oldSet[d] && len(p.employees) > 0 {
				reused = true
			}
		}

		// A reused anchor is re-dated below, which drops its other days.
		if !reused {
			for _, d := range oldDays {
				if newSet[d] {
					continue
				}
				ok, err := store.DeleteShift(ctx, domain.ShiftFilter{
					ID:          anchor.ID,
					EmployeeIDs: []string{anchor.EmployeeID},
					Date:        d,
				})
				if err != nil {
					return err
				}
				if ok {
					deleted++
				}
			}
		}

		anchorTaken := false
		for _, employeeID := range p.employees {
			for _, day := range p.days {
				if err := checkConflict(ctx, store, employeeID, day, anchor.ID); err != nil {
					return err
				}

				if !anchorTaken && oldSet[day] {
					anchorTaken = true
					anchor.EmployeeID = employeeID
					anchor.StartDate = day
					anchor.EndDate = day
					anchor.ShiftType = p.intent.ShiftType
					anchor.ShiftStart = p.intent.ShiftStart
					anchor.ShiftEnd = p.intent.ShiftEnd
					anchor.Notes = p.intent.Notes
					if err := store.UpdateShift(ctx, anchor); err != nil {
						return storeError(err, employeeID, day)
					}
					touched = append(touched, anchor)
					updated++
					continue
				}

				shift := p.newShift(employeeID, day)
				if err := store.InsertShift(ctx, shift); err != nil {
					return storeError(err, employeeID, day)
				}
				touched = append(touched, shift)
				created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shifts reconciled", "anchor", id, "created", created, "updated", updated, "deleted", deleted)
	return touched, nil
}

// validatePatch checks the fields the patch supplies before any store access.
func validatePatch(patch domain.ShiftPatch) error {
	var bad []string
	if patch.ShiftStart != nil && !utils.ValidateTimeFormat(*patch.ShiftStart) {
		bad = append(bad, "shiftStart")
	}
	if patch.ShiftEnd != nil && !utils.ValidateTimeFormat(*patch.ShiftEnd) {
		bad = append(bad, "shiftEnd")
	}
	if len(bad) > 0 {
		return &domain.TimeFormatError{Fields: bad}
	}

	var start, end time.Time
	var err error
	if patch.StartDate != nil {
		if start, err = utils.ParseDate("startDate", *patch.StartDate); err != nil {
			return err
		}
	}
	if patch.EndDate != nil {
		if end, err = utils.ParseDate("endDate", *patch.EndDate); err != nil {
			return err
		}
	}
	if patch.StartDate != nil && patch.EndDate != nil {
		if err := utils.ValidateDateRange(start, &end); err != nil {
			return err
		}
	}

	if patch.ShiftType != nil && !patch.ShiftType.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidShiftType, *patch.ShiftType)
	}
	return nil
}

// Delete removes a single shift. Sibling days are left alone.
func (s *Scheduler) Delete(ctx context.Context, id string) (*domain.Shift, error) {
	shift, err := s.store.DeleteShiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *Scheduler) List(ctx context.Context) ([]*domain.ShiftDetail, error) {
	return s.store.GetAllShiftDetails(ctx)
}

func (s *Scheduler) Get(ctx context.Context, id string) (*domain.ShiftDetail, error) {
	detail, err := s.store.GetShiftDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrShiftNotFound
		}
		return nil, err
	}
	return detail, nil
}

func checkConflict(ctx context.Context, store ShiftStore, employeeID string, day time.Time, excludeID string) error {
	_, err := store.FindShift(ctx, domain.ShiftFilter{
		ExcludeID:   excludeID,
		EmployeeIDs: []string{employeeID},
		Date:        day,
	})
	switch {
	case err == nil:
		return &domain.ShiftConflictError{EmployeeID: employeeID, Date: day.Format(domain.DateLayout)}
	case errors.Is(err, domain.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

// storeError turns the store's unique-constraint signal into a conflict for
// the pair being written.
func storeError(err error, employeeID string, day time.Time) error {
	if errors.Is(err, domain.ErrDuplicateRecord) {
		return &domain.ShiftConflictError{EmployeeID: employeeID, Date: day.Format(domain.DateLayout)}
	}
	return err
}
