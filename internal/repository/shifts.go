package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
)

var _ scheduler.ShiftStore = (*Repository)(nil)

const shiftColumns = `id, employee_id, start_date, end_date, shift_type, shift_start, shift_end, notes, created_at, version`

func shiftDst(s *domain.Shift) []any {
	return []any{
		&s.ID,
		&s.EmployeeID,
		&s.StartDate,
		&s.EndDate,
		&s.ShiftType,
		&s.ShiftStart,
		&s.ShiftEnd,
		&s.Notes,
		&s.CreatedAt,
		&s.Version,
	}
}

// shiftWhere renders filter as a WHERE clause whose placeholders start at $1.
func shiftWhere(filter domain.ShiftFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ID != "" {
		add("id = $%d", filter.ID)
	}
	if filter.ExcludeID != "" {
		add("id <> $%d", filter.ExcludeID)
	}
	if len(filter.EmployeeIDs) > 0 {
		add("employee_id = ANY($%d)", filter.EmployeeIDs)
	}
	if !filter.Date.IsZero() {
		add("start_date = $%d", filter.Date)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) FindShift(ctx context.Context, filter domain.ShiftFilter) (*domain.Shift, error) {
	where, args := shiftWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM shifts %s ORDER BY created_at LIMIT 1`, shiftColumns, where)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift := &domain.Shift{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(shiftDst(shift)...); err != nil {
		return nil, mapError(err)
	}

	return shift, nil
}

func (r *Repository) InsertShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (id, employee_id, start_date, end_date, shift_type, shift_start, shift_end, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}

	args := []any{
		shift.ID,
		shift.EmployeeID,
		shift.StartDate,
		shift.EndDate,
		shift.ShiftType,
		shift.ShiftStart,
		shift.ShiftEnd,
		shift.Notes,
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&shift.CreatedAt, &shift.Version); err != nil {
		return mapError(err)
	}

	return nil
}

func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			employee_id = $1,
			start_date = $2,
			end_date = $3,
			shift_type = $4,
			shift_start = $5,
			shift_end = $6,
			notes = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{
		shift.EmployeeID,
		shift.StartDate,
		shift.EndDate,
		shift.ShiftType,
		shift.ShiftStart,
		shift.ShiftEnd,
		shift.Notes,
		shift.ID,
		shift.Version,
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		err = mapError(err)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return r.staleOrMissing(ctx, "shifts", shift.ID)
		}
		return err
	}

	return nil
}

// staleOrMissing explains an optimistic update that matched no row.
func (r *Repository) staleOrMissing(ctx context.Context, table, id string) error {
	exists := false
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrVersionConflict
	}
	return domain.ErrRecordNotFound
}

func (r *Repository) DeleteShift(ctx context.Context, filter domain.ShiftFilter) (bool, error) {
	where, args := shiftWhere(filter)
	query := fmt.Sprintf(`
		DELETE FROM shifts
		WHERE id = (SELECT id FROM shifts %s ORDER BY created_at LIMIT 1)
	`, where)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	return r.FindShift(ctx, domain.ShiftFilter{ID: id})
}

func (r *Repository) DeleteShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	query := fmt.Sprintf(`DELETE FROM shifts WHERE id = $1 RETURNING %s`, shiftColumns)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift := &domain.Shift{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(shiftDst(shift)...); err != nil {
		return nil, mapError(err)
	}

	return shift, nil
}

const shiftDetailQuery = `
	SELECT
		s.id, s.employee_id, s.start_date, s.end_date, s.shift_type,
		s.shift_start, s.shift_end, s.notes, s.created_at, s.version,
		u.id, u.name, u.email
	FROM shifts s
	LEFT JOIN users u ON u.id::text = s.employee_id
`

type detailRow interface {
	Scan(dest ...any) error
}

func scanShiftDetail(row detailRow) (*domain.ShiftDetail, error) {
	detail := &domain.ShiftDetail{}
	var userID, name, email *string

	dst := append(shiftDst(&detail.Shift), &userID, &name, &email)
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if userID != nil {
		detail.Employee = &domain.EmployeeSummary{ID: *userID, Name: *name, Email: *email}
	}
	return detail, nil
}

func (r *Repository) GetAllShiftDetails(ctx context.Context) ([]*domain.ShiftDetail, error) {
	query := shiftDetailQuery + ` ORDER BY s.start_date, s.created_at`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []*domain.ShiftDetail{}
	for rows.Next() {
		detail, err := scanShiftDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

func (r *Repository) GetShiftDetailByID(ctx context.Context, id string) (*domain.ShiftDetail, error) {
	query := shiftDetailQuery + ` WHERE s.id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	detail, err := scanShiftDetail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}

	return detail, nil
}

// WithTx runs fn against a repository bound to one transaction. Nested
// calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx scheduler.ShiftStore) error) error {
	if r.dbpool == nil {
		return fn(r)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Repository{cfg: r.cfg, db: tx}); err != nil {
		return err
	}

	return tx.Commit()
}
