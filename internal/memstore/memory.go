// Package memstore keeps shifts and users in process memory. It backs the
// tests and DATABASE_DRIVER=memory.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/opsdesk/shift-backend/internal/utils"
)

type Memory struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	shifts   map[string]domain.Shift
	shiftIDs []string // insertion order
	users    map[string]domain.User
	userIDs  []string
	now      func() time.Time
}

func New() *Memory {
	return &Memory{
		shifts: make(map[string]domain.Shift),
		users:  make(map[string]domain.User),
		now:    time.Now,
	}
}

var _ scheduler.ShiftStore = (*Memory)(nil)

func matchShift(f domain.ShiftFilter, s *domain.Shift) bool {
	if f.ID != "" && s.ID != f.ID {
		return false
	}
	if f.ExcludeID != "" && s.ID == f.ExcludeID {
		return false
	}
	if len(f.EmployeeIDs) > 0 && !slices.Contains(f.EmployeeIDs, s.EmployeeID) {
		return false
	}
	if !f.Date.IsZero() && !utils.TruncateDay(s.StartDate).Equal(utils.TruncateDay(f.Date)) {
		return false
	}
	return true
}

// duplicateLocked reports whether another shift already books the same
// employee on the same start day.
func (m *Memory) duplicateLocked(s *domain.Shift) bool {
	day := utils.TruncateDay(s.StartDate)
	for _, id := range m.shiftIDs {
		other := m.shifts[id]
		if other.ID != s.ID && other.EmployeeID == s.EmployeeID && utils.TruncateDay(other.StartDate).Equal(day) {
			return true
		}
	}
	return false
}

func (m *Memory) FindShift(_ context.Context, filter domain.ShiftFilter) (*domain.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.shiftIDs {
		s := m.shifts[id]
		if matchShift(filter, &s) {
			return &s, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *Memory) InsertShift(_ context.Context, shift *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if m.duplicateLocked(shift) {
		return &domain.DuplicateError{Field: "employeeId,startDate"}
	}
	shift.CreatedAt = m.now()
	shift.Version = 1

	m.shifts[shift.ID] = *shift
	m.shiftIDs = append(m.shiftIDs, shift.ID)
	return nil
}

func (m *Memory) UpdateShift(_ context.Context, shift *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.updateShiftLocked(shift)
}

func (m *Memory) updateShiftLocked(shift *domain.Shift) error {
	current, ok := m.shifts[shift.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if current.Version != shift.Version {
		return domain.ErrVersionConflict
	}
	if m.duplicateLocked(shift) {
		return &domain.DuplicateError{Field: "employeeId,startDate"}
	}

	shift.CreatedAt = current.CreatedAt
	shift.Version++
	m.shifts[shift.ID] = *shift
	return nil
}

func (m *Memory) DeleteShift(_ context.Context, filter domain.ShiftFilter) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.shiftIDs {
		s := m.shifts[id]
		if matchShift(filter, &s) {
			m.removeShiftLocked(id)
			return true, nil
		}
	}
	return false, nil
}

// removeShiftLocked deletes the shift and returns its position in the
// insertion order.
func (m *Memory) removeShiftLocked(id string) int {
	delete(m.shifts, id)
	i := slices.Index(m.shiftIDs, id)
	if i >= 0 {
		m.shiftIDs = slices.Delete(m.shiftIDs, i, i+1)
	}
	return i
}

// restoreShiftLocked puts a removed shift back at position i.
func (m *Memory) restoreShiftLocked(s domain.Shift, i int) {
	if _, ok := m.shifts[s.ID]; ok {
		return
	}
	m.shifts[s.ID] = s
	if i < 0 || i > len(m.shiftIDs) {
		i = len(m.shiftIDs)
	}
	m.shiftIDs = slices.Insert(m.shiftIDs, i, s.ID)
}

func (m *Memory) GetShiftByID(_ context.Context, id string) (*domain.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &s, nil
}

func (m *Memory) DeleteShiftByID(_ context.Context, id string) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	m.removeShiftLocked(id)
	return &s, nil
}

func (m *Memory) detailLocked(s domain.Shift) *domain.ShiftDetail {
	detail := &domain.ShiftDetail{Shift: s}
	if u, ok := m.users[s.EmployeeID]; ok {
		detail.Employee = &domain.EmployeeSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return detail
}

func (m *Memory) GetAllShiftDetails(_ context.Context) ([]*domain.ShiftDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := make([]*domain.ShiftDetail, 0, len(m.shiftIDs))
	for _, id := range m.shiftIDs {
		details = append(details, m.detailLocked(m.shifts[id]))
	}
	return details, nil
}

func (m *Memory) GetShiftDetailByID(_ context.Context, id string) (*domain.ShiftDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return m.detailLocked(s), nil
}

// WithTx hands fn a view of the store that records how to revert each
// write it makes. When fn fails those writes are reverted newest first;
// writes made through m by other callers meanwhile are kept. Transactions
// are serialised against each other.
func (m *Memory) WithTx(_ context.Context, fn func(tx scheduler.ShiftStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &txMemory{Memory: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}
