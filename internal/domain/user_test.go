package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserPatchApply(t *testing.T) {
	user := &User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: "old",
		Name:         "Alice",
		Email:        "alice@example.com",
		Role:         RoleEmployee,
		Version:      3,
	}

	UserPatch{
		Email: ptr("alice@corp.example.com"),
		Role:  ptr(RoleAdmin),
	}.Apply(user)

	assert.Equal(t, &User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: "old",
		Name:         "Alice",
		Email:        "alice@corp.example.com",
		Role:         RoleAdmin,
		Version:      3,
	}, user)
}

func TestUserPatchApplyEmpty(t *testing.T) {
	user := &User{Username: "bob", Name: "Bob"}
	UserPatch{}.Apply(user)

	assert.Equal(t, &User{Username: "bob", Name: "Bob"}, user)
}
