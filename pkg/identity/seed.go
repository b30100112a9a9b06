package identity

import (
	"context"
	"errors"
	"fmt"
)

// SeedUser describes a user to provision with Seed.
type SeedUser struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Inactive     bool
}

// Seed creates roles and users that do not exist yet. Roles are keyed by
// name; users reference them by name. Existing rows are left untouched.
func Seed(ctx context.Context, w Writer, roles []Role, users []SeedUser) error {
	ids := make(map[string]int64, len(roles))
	for _, r := range roles {
		created, err := w.CreateRole(ctx, r)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed role %q: %w", r.Name, err)
		}
		ids[created.Name] = created.ID
	}

	for _, u := range users {
		roleID, ok := ids[u.Role]
		if !ok {
			continue
		}
		_, err := w.CreateUser(ctx, Credentials{
			Identity:     Identity{Email: u.Email, Name: u.Name, RoleID: roleID, IsActive: !u.Inactive},
			PasswordHash: u.PasswordHash,
		})
		if err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
	}

	return nil
}
