package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverMemory
	cfg.Database.QueryTimeout = 5
	cfg.Database.ConnectTimeout = 5
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "secret-password"
	cfg.InitialAdmin.Name = "Administrator"
	cfg.InitialAdmin.Email = "admin@example.com"
	return cfg
}

func TestOpenMemory(t *testing.T) {
	st, closeStore, err := Open(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &memstore.Memory{}, st)
}

func TestEnsureInitialAdminIsIdempotent(t *testing.T) {
	cfg := testConfig()
	st := memstore.New()

	require.NoError(t, EnsureInitialAdmin(cfg, st))
	require.NoError(t, EnsureInitialAdmin(cfg, st))

	users, err := st.GetAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.NotEqual(t, cfg.InitialAdmin.Password, users[0].PasswordHash)
}
