package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// SQLiteStore reads users and roles through database/sql with the
// modernc.org/sqlite driver. Apply SQLiteMigrations first.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) FindActiveByEmail(ctx context.Context, email string) (Credentials, error) {
	const q = `SELECT id, email, name, role_id, is_active, password FROM users WHERE email = ? AND is_active = 1`

	var c Credentials
	err := s.db.QueryRowContext(ctx, q, email).
		Scan(&c.ID, &c.Email, &c.Name, &c.RoleID, &c.IsActive, &c.PasswordHash)
	if err != nil {
		return Credentials{}, mapSQLError(err)
	}
	return c, nil
}

func (s *SQLiteStore) FindActiveByID(ctx context.Context, id int64) (Identity, error) {
	const q = `SELECT id, email, name, role_id, is_active FROM users WHERE id = ? AND is_active = 1`

	var u Identity
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.IsActive)
	if err != nil {
		return Identity{}, mapSQLError(err)
	}
	return u, nil
}

func (s *SQLiteStore) RoleByID(ctx context.Context, id int64) (Role, error) {
	const q = `SELECT id, name, permissions FROM roles WHERE id = ?`

	var r Role
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.Name, &r.Permissions); err != nil {
		return Role{}, mapSQLError(err)
	}
	return r, nil
}

func (s *SQLiteStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	if role.Permissions == "" {
		role.Permissions = EncodePermissions()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO roles (name, permissions) VALUES (?, ?)`, role.Name, role.Permissions)
	if err != nil {
		return Role{}, mapSQLError(err)
	}
	if role.ID, err = res.LastInsertId(); err != nil {
		return Role{}, err
	}
	return role, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, c Credentials) (Identity, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password, role_id, is_active) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(c.Email), c.Name, c.PasswordHash, c.RoleID, c.IsActive)
	if err != nil {
		return Identity{}, mapSQLError(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return Identity{}, err
	}
	return c.Identity, nil
}

func mapSQLError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

var (
	_ Store  = (*SQLiteStore)(nil)
	_ Writer = (*SQLiteStore)(nil)
)
