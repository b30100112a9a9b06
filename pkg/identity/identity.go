// Package identity looks up the users and roles behind an authenticated session.
//
// Lookups are always read-through: roles are fetched by ID on every call so
// permission changes made elsewhere are visible on the next request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound  = errors.New("identity: not found")
	ErrDuplicate = errors.New("identity: already exists")
)

// Identity is the principal stored in a session. It never carries the
// password hash.
type Identity struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	RoleID   int64  `json:"role_id"`
	IsActive bool   `json:"is_active"`
}

// Credentials pairs an identity with its stored password hash.
// Only the credential check sees this type.
type Credentials struct {
	Identity
	PasswordHash string
}

// Role is a named set of permissions. Permissions holds the raw JSON array
// exactly as stored.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

// PermissionSet parses Permissions. Malformed JSON yields an empty set;
// non-string members are skipped.
func (r Role) PermissionSet() map[string]struct{} {
	set := make(map[string]struct{})

	var raw []any
	if err := json.Unmarshal([]byte(r.Permissions), &raw); err != nil {
		return set
	}
	for _, v := range raw {
		if s, ok := v.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

// Has reports whether perm is in the role's permission set.
func (r Role) Has(perm string) bool {
	_, ok := r.PermissionSet()[perm]
	return ok
}

// EncodePermissions renders a permission list in the stored form.
func EncodePermissions(perms ...string) string {
	if perms == nil {
		perms = []string{}
	}
	b, _ := json.Marshal(perms)
	return string(b)
}

// Store is the read side used during authentication and guard checks.
// Implementations return ErrNotFound for missing rows and for inactive users.
type Store interface {
	// FindActiveByEmail returns the credentials of an active user.
	FindActiveByEmail(ctx context.Context, email string) (Credentials, error)

	// FindActiveByID returns an active user.
	FindActiveByID(ctx context.Context, id int64) (Identity, error)

	// RoleByID returns a role.
	RoleByID(ctx context.Context, id int64) (Role, error)
}

// Writer provisions users and roles. The auth flow never writes.
type Writer interface {
	CreateRole(ctx context.Context, role Role) (Role, error)
	CreateUser(ctx context.Context, c Credentials) (Identity, error)
}
