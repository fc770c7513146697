// Package seed loads shift data from a CSV export.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
)

// Headers every import file must carry. Extra columns are ignored.
var requiredHeaders = []string{"username", "startDate", "shiftType", "shiftStart", "shiftEnd"}

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

type Importer struct {
	Users     UserStore
	Scheduler *scheduler.Scheduler
	// PasswordHash is given to employees the import has to create.
	PasswordHash string
	// EmailDomain builds the address of created employees when the file
	// has no email column.
	EmailDomain string
	Logger      *slog.Logger
}

type Result struct {
	Rows         int
	UsersCreated int
	Shifts       int
	Failed       int
}

// ImportCSV reads one intent per row and hands it to the scheduler. Rows
// naming an unknown username create an employee first. A failing row is
// logged and skipped.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, h := range requiredHeaders {
		if !slices.Contains(headers, h) {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}

	result := &Result{}
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return result, err
		}
		result.Rows++

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = value
		}

		if err := im.importRow(ctx, record, result); err != nil {
			im.Logger.Error("failed to import row", "row", result.Rows, "username", record["username"], "error", err)
			result.Failed++
		}
	}

	im.Logger.Info("import finished", "rows", result.Rows, "usersCreated", result.UsersCreated, "shifts", result.Shifts, "failed", result.Failed)
	return result, nil
}

func (im *Importer) importRow(ctx context.Context, record map[string]string, result *Result) error {
	username := record["username"]
	if username == "" {
		return errors.New("empty username")
	}

	user, err := im.Users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}

		user = &domain.User{
			Username:     username,
			PasswordHash: im.PasswordHash,
			Name:         record["name"],
			Email:        record["email"],
			Role:         domain.RoleEmployee,
		}
		if user.Name == "" {
			user.Name = username
		}
		if user.Email == "" {
			user.Email = username + "@" + im.EmailDomain
		}
		if err := im.Users.CreateUser(ctx, user); err != nil {
			return err
		}
		result.UsersCreated++
	}

	shifts, err := im.Scheduler.Create(ctx, domain.ShiftIntent{
		EmployeeIDs: []string{user.ID},
		StartDate:   record["startDate"],
		EndDate:     record["endDate"],
		ShiftType:   domain.ShiftType(record["shiftType"]),
		ShiftStart:  record["shiftStart"],
		ShiftEnd:    record["shiftEnd"],
		Notes:       record["notes"],
	})
	if err != nil {
		return err
	}

	result.Shifts += len(shifts)
	return nil
}
