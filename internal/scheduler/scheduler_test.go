package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/memstore"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T {
	return &v
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// countingStore counts the calls the scheduler makes outside transactions.
type countingStore struct {
	scheduler.ShiftStore
	finds   int
	inserts int
}

func (c *countingStore) FindShift(ctx context.Context, filter domain.ShiftFilter) (*domain.Shift, error) {
	c.finds++
	return c.ShiftStore.FindShift(ctx, filter)
}

func (c *countingStore) InsertShift(ctx context.Context, shift *domain.Shift) error {
	c.inserts++
	return c.ShiftStore.InsertShift(ctx, shift)
}

// untouchedStore panics on any call.
type untouchedStore struct {
	scheduler.ShiftStore
}

// racingStore never sees existing shifts, as if another request inserted
// them between the lookup and the write.
type racingStore struct {
	scheduler.ShiftStore
}

func (racingStore) FindShift(context.Context, domain.ShiftFilter) (*domain.Shift, error) {
	return nil, domain.ErrRecordNotFound
}

func intent(employees []string, start, end string) domain.ShiftIntent {
	return domain.ShiftIntent{
		EmployeeIDs: employees,
		StartDate:   start,
		EndDate:     end,
		ShiftType:   domain.ShiftMorning,
		ShiftStart:  "08:00",
		ShiftEnd:    "14:00",
		Notes:       "front desk",
	}
}

func seedShift(t *testing.T, store scheduler.ShiftStore, employeeID, start, end string) *domain.Shift {
	t.Helper()
	shift := &domain.Shift{
		EmployeeID: employeeID,
		StartDate:  day(start),
		EndDate:    day(end),
		ShiftType:  domain.ShiftMorning,
		ShiftStart: "08:00",
		ShiftEnd:   "14:00",
	}
	require.NoError(t, store.InsertShift(context.Background(), shift))
	return shift
}

func allShifts(t *testing.T, store scheduler.ShiftStore) []*domain.ShiftDetail {
	t.Helper()
	details, err := store.GetAllShiftDetails(context.Background())
	require.NoError(t, err)
	return details
}

func TestCreateFansOutEveryPair(t *testing.T) {
	store := &countingStore{ShiftStore: memstore.New()}
	s := scheduler.New(store, scheduler.WithLogger(discard))

	shifts, err := s.Create(context.Background(), intent([]string{"e1", "e2", "e3"}, "2025-01-01", "2025-01-04"))
	require.NoError(t, err)

	assert.Len(t, shifts, 12)
	assert.Equal(t, 12, store.finds)
	assert.Equal(t, 12, store.inserts)

	// employee-major, date-minor
	assert.Equal(t, "e1", shifts[0].EmployeeID)
	assert.Equal(t, day("2025-01-01"), shifts[0].StartDate)
	assert.Equal(t, "e1", shifts[3].EmployeeID)
	assert.Equal(t, day("2025-01-04"), shifts[3].StartDate)
	assert.Equal(t, "e2", shifts[4].EmployeeID)

	for _, shift := range shifts {
		assert.NotEmpty(t, shift.ID)
		assert.Equal(t, shift.StartDate, shift.EndDate)
		assert.Equal(t, "front desk", shift.Notes)
	}
}

func TestCreateEndDateDefaultsToStart(t *testing.T) {
	s := scheduler.New(memstore.New(), scheduler.WithLogger(discard))

	shifts, err := s.Create(context.Background(), intent([]string{"e1"}, "2025-01-01", ""))
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, day("2025-01-01"), shifts[0].StartDate)
}

func TestCreateIgnoresDuplicateEmployees(t *testing.T) {
	s := scheduler.New(memstore.New(), scheduler.WithLogger(discard))

	shifts, err := s.Create(context.Background(), intent([]string{"e1", "e1"}, "2025-01-01", "2025-01-02"))
	require.NoError(t, err)
	assert.Len(t, shifts, 2)
}

func TestCreateStopsAtFirstConflict(t *testing.T) {
	store := memstore.New()
	seedShift(t, store, "e1", "2025-01-02", "2025-01-02")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	shifts, err := s.Create(context.Background(), intent([]string{"e1", "e2"}, "2025-01-01", "2025-01-02"))
	require.Error(t, err)
	assert.Nil(t, shifts)
	assert.ErrorIs(t, err, domain.ErrShiftConflict)

	var conflict *domain.ShiftConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "e1", conflict.EmployeeID)
	assert.Equal(t, "2025-01-02", conflict.Date)

	// the seeded shift plus e1 on 01-01, written before the conflict
	details := allShifts(t, store)
	require.Len(t, details, 2)
	assert.Equal(t, "e1", details[1].EmployeeID)
	assert.Equal(t, day("2025-01-01"), details[1].StartDate)
}

func TestCreateAtomicLeavesNothingOnConflict(t *testing.T) {
	store := memstore.New()
	seedShift(t, store, "e1", "2025-01-02", "2025-01-02")
	s := scheduler.New(store, scheduler.WithAtomicWrites(true), scheduler.WithLogger(discard))

	_, err := s.Create(context.Background(), intent([]string{"e1", "e2"}, "2025-01-01", "2025-01-02"))
	require.ErrorIs(t, err, domain.ErrShiftConflict)

	assert.Len(t, allShifts(t, store), 1)
}

func TestCreateTreatsStoreUniquenessAsConflict(t *testing.T) {
	mem := memstore.New()
	seedShift(t, mem, "e1", "2025-01-01", "2025-01-01")
	s := scheduler.New(racingStore{ShiftStore: mem}, scheduler.WithLogger(discard))

	_, err := s.Create(context.Background(), intent([]string{"e1"}, "2025-01-01", ""))
	assert.ErrorIs(t, err, domain.ErrShiftConflict)
}

func TestCreateRejectsInvalidInputBeforeStoreAccess(t *testing.T) {
	s := scheduler.New(untouchedStore{}, scheduler.WithLogger(discard))
	ctx := context.Background()

	bad := intent([]string{"e1"}, "2025-01-01", "")
	bad.ShiftStart = "9:00"
	_, err := s.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeFormat)

	_, err = s.Create(ctx, intent([]string{"e1"}, "2025-01-03", "2025-01-01"))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = s.Create(ctx, intent([]string{"e1"}, "01/03/2025", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	bad = intent([]string{"e1"}, "2025-01-01", "")
	bad.ShiftType = "Night"
	_, err = s.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidShiftType)
}

func TestUpdateShiftsAnchorRange(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-02")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	touched, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{
		StartDate: ptr("2025-01-02"),
		EndDate:   ptr("2025-01-03"),
	})
	require.NoError(t, err)
	require.Len(t, touched, 2)

	assert.Equal(t, anchor.ID, touched[0].ID)
	assert.Equal(t, day("2025-01-02"), touched[0].StartDate)
	assert.Equal(t, day("2025-01-02"), touched[0].EndDate)
	assert.NotEqual(t, anchor.ID, touched[1].ID)
	assert.Equal(t, day("2025-01-03"), touched[1].StartDate)

	details := allShifts(t, store)
	require.Len(t, details, 2)
	for _, d := range details {
		assert.NotEqual(t, day("2025-01-01"), d.StartDate)
	}
}

func TestUpdateSplitsMultiDayAnchor(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-03")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	touched, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{Notes: ptr("split")})
	require.NoError(t, err)
	require.Len(t, touched, 3)

	assert.Equal(t, anchor.ID, touched[0].ID)
	for i, shift := range touched {
		want := day("2025-01-01").AddDate(0, 0, i)
		assert.Equal(t, "e1", shift.EmployeeID)
		assert.Equal(t, want, shift.StartDate)
		assert.Equal(t, want, shift.EndDate)
		assert.Equal(t, "split", shift.Notes)
		if i > 0 {
			assert.NotEqual(t, anchor.ID, shift.ID)
		}
	}

	stored, err := store.GetShiftByID(context.Background(), anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-01"), stored.EndDate)
	assert.Len(t, allShifts(t, store), 3)
}

func TestUpdateMovesAnchorOutOfRange(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	touched, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{StartDate: ptr("2025-01-05")})
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.Equal(t, day("2025-01-05"), touched[0].StartDate)

	_, err = store.GetShiftByID(context.Background(), anchor.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Len(t, allShifts(t, store), 1)
}

func TestUpdateKeepsFieldsNotInPatch(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	touched, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{
		ShiftType:  ptr(domain.ShiftAfternoon),
		ShiftStart: ptr("14:00"),
		ShiftEnd:   ptr("20:00"),
	})
	require.NoError(t, err)
	require.Len(t, touched, 1)

	updated, err := store.GetShiftByID(context.Background(), anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.EmployeeID)
	assert.Equal(t, day("2025-01-01"), updated.StartDate)
	assert.Equal(t, domain.ShiftAfternoon, updated.ShiftType)
	assert.Equal(t, "14:00", updated.ShiftStart)
	assert.Equal(t, "20:00", updated.ShiftEnd)
	assert.Equal(t, int32(2), updated.Version)
}

func TestUpdateFansOutToNewEmployees(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	touched, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{EmployeeIDs: []string{"e2", "e3"}})
	require.NoError(t, err)
	require.Len(t, touched, 2)

	assert.Equal(t, anchor.ID, touched[0].ID)
	assert.Equal(t, "e2", touched[0].EmployeeID)
	assert.Equal(t, "e3", touched[1].EmployeeID)
	assert.Len(t, allShifts(t, store), 2)
}

func TestUpdateConflict(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	seedShift(t, store, "e2", "2025-01-02", "2025-01-02")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	_, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{
		EmployeeIDs: []string{"e2"},
		StartDate:   ptr("2025-01-02"),
	})
	require.ErrorIs(t, err, domain.ErrShiftConflict)

	// the anchor's dropped day was removed before the conflict surfaced
	_, err = store.GetShiftByID(context.Background(), anchor.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestUpdateConflictAtomic(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	seedShift(t, store, "e2", "2025-01-02", "2025-01-02")
	s := scheduler.New(store, scheduler.WithAtomicWrites(true), scheduler.WithLogger(discard))

	_, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{
		EmployeeIDs: []string{"e2"},
		StartDate:   ptr("2025-01-02"),
	})
	require.ErrorIs(t, err, domain.ErrShiftConflict)

	kept, err := store.GetShiftByID(context.Background(), anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, day("2025-01-01"), kept.StartDate)
	assert.Len(t, allShifts(t, store), 2)
}

func TestUpdateIgnoresAnchorInConflictCheck(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-01", "2025-01-01")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	_, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{Notes: ptr("moved to back office")})
	assert.NoError(t, err)
}

func TestUpdateNotFound(t *testing.T) {
	s := scheduler.New(memstore.New(), scheduler.WithLogger(discard))

	_, err := s.Update(context.Background(), "6f1c2d7e-5b43-4b8f-9f0e-0a1b2c3d4e5f", domain.ShiftPatch{})
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
}

func TestUpdateRejectsInvalidPatchBeforeStoreAccess(t *testing.T) {
	s := scheduler.New(untouchedStore{}, scheduler.WithLogger(discard))
	ctx := context.Background()

	_, err := s.Update(ctx, "id", domain.ShiftPatch{ShiftEnd: ptr("24:00")})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeFormat)

	_, err = s.Update(ctx, "id", domain.ShiftPatch{StartDate: ptr("2025-01-05"), EndDate: ptr("2025-01-01")})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = s.Update(ctx, "id", domain.ShiftPatch{ShiftType: ptr(domain.ShiftType("Night"))})
	assert.ErrorIs(t, err, domain.ErrInvalidShiftType)
}

func TestUpdateEndBeforeAnchorStart(t *testing.T) {
	store := memstore.New()
	anchor := seedShift(t, store, "e1", "2025-01-05", "2025-01-05")
	s := scheduler.New(store, scheduler.WithLogger(discard))

	_, err := s.Update(context.Background(), anchor.ID, domain.ShiftPatch{EndDate: ptr("2025-01-01")})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestDelete(t *testing.T) {
	store := memstore.New()
	s := scheduler.New(store, scheduler.WithLogger(discard))
	ctx := context.Background()

	shifts, err := s.Create(ctx, intent([]string{"e1"}, "2025-01-01", "2025-01-02"))
	require.NoError(t, err)

	removed, err := s.Delete(ctx, shifts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, shifts[0].ID, removed.ID)

	// siblings stay
	assert.Len(t, allShifts(t, store), 1)

	_, err = s.Delete(ctx, shifts[0].ID)
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
}

func TestListAndGetJoinEmployee(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	user := &domain.User{Username: "alice", Name: "Alice", Email: "alice@example.com", Role: domain.RoleEmployee}
	require.NoError(t, store.CreateUser(ctx, user))

	s := scheduler.New(store, scheduler.WithLogger(discard))
	shifts, err := s.Create(ctx, intent([]string{user.ID, "ghost"}, "2025-01-01", ""))
	require.NoError(t, err)

	details, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.NotNil(t, details[0].Employee)
	assert.Equal(t, "Alice", details[0].Employee.Name)
	assert.Equal(t, "alice@example.com", details[0].Employee.Email)
	assert.Nil(t, details[1].Employee)

	detail, err := s.Get(ctx, shifts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, detail.Employee.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
}
