package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
// Suitable for tests, development and single-instance deployments.
type MemoryStore struct {
	byToken map[string]*Session
	byID    map[string]string // id -> token
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets how often expired sessions are removed
// by the background janitor goroutine. Zero disables the janitor.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// NewMemoryStore creates an in-memory session store.
//
// Example:
//
//	store := session.NewMemoryStore(session.WithCleanupInterval(30 * time.Second))
//	defer store.Close()
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := &memoryOptions{cleanupInterval: time.Minute}
	for _, opt := range opts {
		opt(o)
	}

	m := &MemoryStore{
		byToken: make(map[string]*Session),
		byID:    make(map[string]string),
		done:    make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}

	return m
}

// Create persists a new session.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.put(s)
	return nil
}

// Get retrieves a session by its token.
func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		m.remove(s.ID)
		return nil, ErrExpired
	}

	return s.Clone(), nil
}

// Update saves changes to an existing session.
// A changed token invalidates the previous one.
func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.byID[s.ID]; !ok {
		return ErrNotFound
	}

	m.put(s)
	return nil
}

// Delete removes a session by its ID.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.remove(id)
	return nil
}

// DeleteByUserID removes all sessions that belong to userID.
func (m *MemoryStore) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, s := range m.byToken {
		if s.UserID != nil && *s.UserID == userID {
			m.remove(s.ID)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

// Close stops the janitor. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)
	return nil
}

// put stores a clone of s, dropping any previous token for the same ID.
// The stored copy is marked persisted and clean, as a decoded Redis record is.
// Caller must hold the mutex.
func (m *MemoryStore) put(s *Session) {
	if old, ok := m.byID[s.ID]; ok && old != s.Token {
		delete(m.byToken, old)
	}
	c := s.Clone()
	c.ClearNew()
	c.ClearDirty()
	m.byToken[s.Token] = c
	m.byID[s.ID] = s.Token
}

// remove deletes a session by ID.
// Caller must hold the mutex.
func (m *MemoryStore) remove(id string) {
	token, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byToken, token)
	delete(m.byID, id)
}

func (m *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.byToken {
		if s.IsExpired() {
			m.remove(s.ID)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
