package identity

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps users and roles in process memory.
type MemoryStore struct {
	users  map[int64]Credentials
	roles  map[int64]Role
	mu     sync.RWMutex
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]Credentials),
		roles: make(map[int64]Role),
	}
}

func (m *MemoryStore) FindActiveByEmail(_ context.Context, email string) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.users {
		if c.Email == email && c.IsActive {
			return c, nil
		}
	}
	return Credentials{}, ErrNotFound
}

func (m *MemoryStore) FindActiveByID(_ context.Context, id int64) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.users[id]
	if !ok || !c.IsActive {
		return Identity{}, ErrNotFound
	}
	return c.Identity, nil
}

func (m *MemoryStore) RoleByID(_ context.Context, id int64) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return r, nil
}

// CreateRole stores role, assigning an ID when zero.
func (m *MemoryStore) CreateRole(_ context.Context, role Role) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.roles {
		if r.Name == role.Name {
			return Role{}, ErrDuplicate
		}
	}
	if role.ID == 0 {
		m.nextID++
		role.ID = m.nextID
	}
	m.roles[role.ID] = role
	return role, nil
}

// CreateUser stores a user, assigning an ID when zero.
func (m *MemoryStore) CreateUser(_ context.Context, c Credentials) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.Email = strings.TrimSpace(c.Email)
	for _, u := range m.users {
		if u.Email == c.Email {
			return Identity{}, ErrDuplicate
		}
	}
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
	}
	m.users[c.ID] = c
	return c.Identity, nil
}

// UpdateRole replaces a stored role. Used to change permissions at runtime.
func (m *MemoryStore) UpdateRole(_ context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[role.ID]; !ok {
		return ErrNotFound
	}
	m.roles[role.ID] = role
	return nil
}

// DeleteRole removes a role.
func (m *MemoryStore) DeleteRole(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.roles, id)
	return nil
}

// SetActive toggles a user's active flag.
func (m *MemoryStore) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	m.users[id] = c
	return nil
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Writer = (*MemoryStore)(nil)
)
