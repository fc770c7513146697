package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
)

//go:embed schema.sql
var schema string

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB // nil when the repository is bound to a transaction
	db     dbtx
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		db:     dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// Migrate creates the tables and unique constraints if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

const (
	constraintUsername   = "users_username_key"
	constraintEmail      = "users_email_key"
	constraintShiftOnDay = "shifts_employee_id_start_date_key"

	uniqueViolation = "23505"
)

// mapError translates driver errors into the domain's store errors.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsername:
			return &domain.DuplicateError{Field: "username"}
		case constraintEmail:
			return &domain.DuplicateError{Field: "email"}
		case constraintShiftOnDay:
			return &domain.DuplicateError{Field: "employeeId,startDate"}
		default:
			return &domain.DuplicateError{Field: pgErr.ConstraintName}
		}
	}

	return err
}
