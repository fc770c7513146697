package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/opsdesk/shift-backend/internal/memstore"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImporter(store *memstore.Memory) *Importer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Importer{
		Users:        store,
		Scheduler:    scheduler.New(store, scheduler.WithLogger(logger)),
		PasswordHash: "hash",
		EmailDomain:  "example.com",
		Logger:       logger,
	}
}

func TestImportCSV(t *testing.T) {
	store := memstore.New()
	im := newImporter(store)

	data := `username,name,email,startDate,endDate,shiftType,shiftStart,shiftEnd,notes
alice,Alice,alice@example.com,2025-01-01,2025-01-03,Morning,08:00,14:00,front desk
bob,Bob,bob@example.com,2025-01-01,,Afternoon,14:00,20:00,
alice,Alice,alice@example.com,2025-01-02,,Afternoon,14:00,20:00,double booked
carol,Carol,carol@example.com,2025-01-05,,Morning,8:00,14:00,bad time
`

	result, err := im.ImportCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 3, result.UsersCreated)
	assert.Equal(t, 4, result.Shifts)
	assert.Equal(t, 2, result.Failed)

	details, err := store.GetAllShiftDetails(context.Background())
	require.NoError(t, err)
	assert.Len(t, details, 4)
}

func TestImportCSVMissingColumn(t *testing.T) {
	im := newImporter(memstore.New())

	_, err := im.ImportCSV(context.Background(), strings.NewReader("username,startDate\nalice,2025-01-01\n"))
	assert.ErrorContains(t, err, "shiftType")
}

func TestImportCSVWithoutContactColumns(t *testing.T) {
	store := memstore.New()
	im := newImporter(store)

	data := `username,startDate,endDate,shiftType,shiftStart,shiftEnd,notes
alice,2025-01-01,,Morning,08:00,14:00,
bob,2025-01-01,,Morning,08:00,14:00,
`

	result, err := im.ImportCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.UsersCreated)
	assert.Equal(t, 2, result.Shifts)
	assert.Zero(t, result.Failed)

	bob, err := store.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.Equal(t, "bob", bob.Name)
}
