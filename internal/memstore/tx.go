package memstore

import (
	"context"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
)

// txMemory is the store handed to WithTx callbacks. Every successful write
// pushes its inverse onto undo.
type txMemory struct {
	*Memory
	undo []func()
}

var _ scheduler.ShiftStore = (*txMemory)(nil)

func (t *txMemory) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txMemory) InsertShift(ctx context.Context, shift *domain.Shift) error {
	if err := t.Memory.InsertShift(ctx, shift); err != nil {
		return err
	}

	id := shift.ID
	t.undo = append(t.undo, func() {
		t.removeShiftLocked(id)
	})
	return nil
}

func (t *txMemory) UpdateShift(_ context.Context, shift *domain.Shift) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.shifts[shift.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if err := t.updateShiftLocked(shift); err != nil {
		return err
	}

	t.undo = append(t.undo, func() {
		if _, ok := t.shifts[prev.ID]; ok {
			t.shifts[prev.ID] = prev
		}
	})
	return nil
}

func (t *txMemory) DeleteShift(_ context.Context, filter domain.ShiftFilter) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.shiftIDs {
		s := t.shifts[id]
		if matchShift(filter, &s) {
			t.pushRestore(s, t.removeShiftLocked(id))
			return true, nil
		}
	}
	return false, nil
}

func (t *txMemory) DeleteShiftByID(_ context.Context, id string) (*domain.Shift, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.shifts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	t.pushRestore(s, t.removeShiftLocked(id))
	return &s, nil
}

func (t *txMemory) pushRestore(s domain.Shift, i int) {
	t.undo = append(t.undo, func() {
		t.restoreShiftLocked(s, i)
	})
}

// WithTx joins the running transaction.
func (t *txMemory) WithTx(_ context.Context, fn func(tx scheduler.ShiftStore) error) error {
	return fn(t)
}
