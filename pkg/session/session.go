package session

import (
	"encoding/json"
	"errors"
	"time"
)

// Session is server-side state keyed by an opaque cookie token.
//
// Values holds plain strings only. Callers that need structured data encode
// it themselves (see SetJSON), which keeps a session byte-identical across
// the memory and Redis stores.
type Session struct {
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	UserID       *string           `json:"user_id,omitempty"` // nil = anonymous session
	Values       map[string]string `json:"values,omitempty"`
	ID           string            `json:"id"`    // stable identifier, survives token rotation
	Token        string            `json:"token"` // cookie value, changes on rotation
	IP           string            `json:"ip,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`

	dirty bool
	isNew bool
}

// New creates a new session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]string),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// SetValue stores a value and marks the session dirty.
func (s *Session) SetValue(key, val string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (string, bool) {
	if s.Values == nil {
		return "", false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value.
// Marks the session as dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if s.Values == nil {
		return
	}
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session has not been persisted yet.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Clone returns a deep copy. Stores hand out clones so a request never
// mutates state another request is reading.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.UserID != nil {
		uid := *s.UserID
		c.UserID = &uid
	}
	c.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	return &c
}

// SetJSON encodes v and stores it under key.
func SetJSON(s *Session, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	s.SetValue(key, string(data))
	return nil
}

// GetJSON decodes the value stored under key into T.
// Returns ErrNotFound if the key is absent.
func GetJSON[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	raw, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, errors.Join(ErrDecode, err)
	}
	return v, nil
}
