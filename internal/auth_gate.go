package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/password"
)

// authSessionKey is the session key holding the authenticated identity.
const authSessionKey = "_auth_user"

// AuthGate answers identity questions for one request from its session.
// Roles are looked up on every call, never cached, so role changes made
// elsewhere apply on the next check.
type AuthGate struct {
	ctx      context.Context
	session  SessionStore
	users    identity.Store
	verifier password.Verifier
	logger   *slog.Logger
}

// NewAuthGate creates a gate over the given session.
func NewAuthGate(ctx context.Context, sess SessionStore, users identity.Store, verifier password.Verifier, logger *slog.Logger) *AuthGate {
	if verifier == nil {
		verifier = password.Default
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthGate{
		ctx:      ctx,
		session:  sess,
		users:    users,
		verifier: verifier,
		logger:   logger,
	}
}

// Identity returns the logged-in identity, or nil for a guest.
// Undecodable session data is treated as a guest.
func (g *AuthGate) Identity() (*identity.Identity, error) {
	raw, ok, err := g.session.Get(authSessionKey)
	if err != nil || !ok {
		return nil, err
	}

	var ident identity.Identity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil {
		g.logger.WarnContext(g.ctx, "discarding undecodable session identity", slog.Any("error", err))
		return nil, nil
	}
	return &ident, nil
}

// Check reports whether an identity is logged in.
func (g *AuthGate) Check() (bool, error) {
	ident, err := g.Identity()
	return ident != nil, err
}

// IsAuthenticated is Check with session errors treated as a guest.
func (g *AuthGate) IsAuthenticated() bool {
	ok, err := g.Check()
	if err != nil {
		g.logger.ErrorContext(g.ctx, "session read failed", slog.Any("error", err))
		return false
	}
	return ok
}

// Guest reports whether no identity is logged in.
func (g *AuthGate) Guest() bool {
	return !g.IsAuthenticated()
}

// ID returns the logged-in identity's ID.
func (g *AuthGate) ID() (int64, bool) {
	ident, err := g.Identity()
	if err != nil || ident == nil {
		return 0, false
	}
	return ident.ID, true
}

// RoleOf looks up the role referenced by ident. It returns nil when ident
// is nil or the role no longer exists.
func (g *AuthGate) RoleOf(ident *identity.Identity) (*identity.Role, error) {
	if ident == nil || g.users == nil {
		return nil, nil
	}

	role, err := g.users.RoleByID(g.ctx, ident.RoleID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// Role returns the logged-in identity's role.
func (g *AuthGate) Role() (*identity.Role, error) {
	ident, err := g.Identity()
	if err != nil {
		return nil, err
	}
	return g.RoleOf(ident)
}

// HasRole reports whether the logged-in identity's role is named name.
// Guests and identities without a role have no role.
func (g *AuthGate) HasRole(name string) (bool, error) {
	role, err := g.Role()
	if err != nil || role == nil {
		return false, err
	}
	return role.Name == name, nil
}

// HasPermission reports whether perm is granted by the logged-in identity's
// role. Malformed permission data grants nothing.
func (g *AuthGate) HasPermission(perm string) (bool, error) {
	role, err := g.Role()
	if err != nil || role == nil {
		return false, err
	}
	return role.Has(perm), nil
}

// Login rotates the session token and then stores ident in the session.
// Session values persist across the rotation. If the rotation fails the
// identity is never written, so the pre-login token stays anonymous.
func (g *AuthGate) Login(ident identity.Identity) error {
	b, err := json.Marshal(ident)
	if err != nil {
		return err
	}
	if err := g.session.Rotate(); err != nil {
		return err
	}
	if err := g.session.Set(authSessionKey, string(b)); err != nil {
		return err
	}
	if binder, ok := g.session.(interface{ BindUser(string) error }); ok {
		if err := binder.BindUser(strconv.FormatInt(ident.ID, 10)); err != nil {
			return err
		}
	}
	return nil
}

// LoginByID logs in the active user with the given ID.
// It reports false if no such active user exists.
func (g *AuthGate) LoginByID(id int64) (bool, error) {
	if g.users == nil {
		return false, nil
	}

	ident, err := g.users.FindActiveByID(g.ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := g.Login(ident); err != nil {
		return false, err
	}
	return true, nil
}

// Logout destroys the whole session, flash data included.
func (g *AuthGate) Logout() error {
	return g.session.Destroy()
}

// Attempt verifies email and password against the identity store and logs
// the user in on success. An unknown email and a wrong password both return
// nil with no error so callers cannot tell them apart.
func (g *AuthGate) Attempt(email, plain string) (*identity.Identity, error) {
	email = strings.TrimSpace(email)
	outcome := "error"
	defer func() {
		level := slog.LevelInfo
		if outcome == "error" {
			level = slog.LevelError
		}
		g.logger.Log(g.ctx, level, "credential attempt", slog.String("outcome", outcome))
	}()

	if g.users == nil {
		password.Burn(g.verifier, plain)
		outcome = "rejected"
		return nil, nil
	}

	creds, err := g.users.FindActiveByEmail(g.ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			password.Burn(g.verifier, plain)
			outcome = "rejected"
			return nil, nil
		}
		return nil, err
	}

	ok, verr := g.verifier.Verify(plain, creds.PasswordHash)
	if verr != nil {
		g.logger.WarnContext(g.ctx, "stored password hash rejected", slog.Int64("user_id", creds.ID), slog.Any("error", verr))
	}
	if !ok {
		outcome = "rejected"
		return nil, nil
	}

	if err := g.Login(creds.Identity); err != nil {
		return nil, err
	}

	outcome = "success"
	return &creds.Identity, nil
}
