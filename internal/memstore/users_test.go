package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserUniqueness(t *testing.T) {
	m := New()
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, m.CreateUser(ctx, alice))
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, int32(1), alice.Version)

	var dup *domain.DuplicateError

	err := m.CreateUser(ctx, &domain.User{Username: "alice", Email: "other@example.com"})
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)

	err = m.CreateUser(ctx, &domain.User{Username: "alice2", Email: "alice@example.com"})
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)
}

func TestGetUsers(t *testing.T) {
	m := New()
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "alice@example.com"}
	bob := &domain.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, m.CreateUser(ctx, alice))
	require.NoError(t, m.CreateUser(ctx, bob))

	got, err := m.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	got, err = m.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = m.GetUserByUsername(ctx, "carol")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	all, err := m.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, "bob", all[1].Username)

	exists, err := m.CheckEmailIfExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = m.CheckEmailIfExists(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateUser(t *testing.T) {
	m := New()
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "alice@example.com"}
	bob := &domain.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, m.CreateUser(ctx, alice))
	require.NoError(t, m.CreateUser(ctx, bob))

	stale := *alice
	alice.Name = "Alice"
	require.NoError(t, m.UpdateUser(ctx, alice))
	assert.Equal(t, int32(2), alice.Version)

	assert.ErrorIs(t, m.UpdateUser(ctx, &stale), domain.ErrVersionConflict)

	alice.Email = "bob@example.com"
	assert.ErrorIs(t, m.UpdateUser(ctx, alice), domain.ErrDuplicateRecord)
}

func TestDeleteUser(t *testing.T) {
	m := New()
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, m.CreateUser(ctx, alice))

	require.NoError(t, m.DeleteUser(ctx, alice.ID))
	assert.ErrorIs(t, m.DeleteUser(ctx, alice.ID), domain.ErrRecordNotFound)

	_, err := m.GetUserByID(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
