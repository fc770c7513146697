package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/opsdesk/shift-backend/internal/domain"
)

// uniqueUserLocked returns the first unique user field u collides on.
func (m *Memory) uniqueUserLocked(u *domain.User) string {
	for _, id := range m.userIDs {
		other := m.users[id]
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return "username"
		}
		if other.Email == u.Email {
			return "email"
		}
	}
	return ""
}

func (m *Memory) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if field := m.uniqueUserLocked(user); field != "" {
		return &domain.DuplicateError{Field: field}
	}
	user.CreatedAt = m.now()
	user.Version = 1

	m.users[user.ID] = *user
	m.userIDs = append(m.userIDs, user.ID)
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.userIDs {
		if u := m.users[id]; u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *Memory) GetAllUsers(_ context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*domain.User, 0, len(m.userIDs))
	for _, id := range m.userIDs {
		u := m.users[id]
		users = append(users, &u)
	}
	return users, nil
}

func (m *Memory) UpdateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.users[user.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}
	if field := m.uniqueUserLocked(user); field != "" {
		return &domain.DuplicateError{Field: field}
	}

	user.CreatedAt = current.CreatedAt
	user.Version++
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(m.users, id)
	m.userIDs = slices.DeleteFunc(m.userIDs, func(s string) bool { return s == id })
	return nil
}

func (m *Memory) CheckEmailIfExists(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.userIDs {
		if m.users[id].Email == email {
			return true, nil
		}
	}
	return false, nil
}
